package calendar

import (
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	"go.uber.org/zap"

	"github.com/username/podroznik/pkg/dateutil"
)

var (
	easterSunday = &cal.Holiday{Name: "Wielkanoc", Type: cal.ObservancePublic, Offset: 0, Func: cal.CalcEasterOffset}

	// polishHolidays are the statutory non-working days the upstream timetables refer to as "święta"
	polishHolidays = []*cal.Holiday{
		{Name: "Nowy Rok", Type: cal.ObservancePublic, Month: time.January, Day: 1, Func: cal.CalcDayOfMonth},
		{Name: "Trzech Króli", Type: cal.ObservancePublic, Month: time.January, Day: 6, Func: cal.CalcDayOfMonth},
		{Name: "Święto Pracy", Type: cal.ObservancePublic, Month: time.May, Day: 1, Func: cal.CalcDayOfMonth},
		{Name: "Święto Konstytucji 3 Maja", Type: cal.ObservancePublic, Month: time.May, Day: 3, Func: cal.CalcDayOfMonth},
		{Name: "Wniebowzięcie NMP", Type: cal.ObservancePublic, Month: time.August, Day: 15, Func: cal.CalcDayOfMonth},
		{Name: "Wszystkich Świętych", Type: cal.ObservancePublic, Month: time.November, Day: 1, Func: cal.CalcDayOfMonth},
		{Name: "Święto Niepodległości", Type: cal.ObservancePublic, Month: time.November, Day: 11, Func: cal.CalcDayOfMonth},
		{Name: "Wigilia Bożego Narodzenia", Type: cal.ObservancePublic, Month: time.December, Day: 24, StartYear: 2025, Func: cal.CalcDayOfMonth},
		{Name: "Boże Narodzenie", Type: cal.ObservancePublic, Month: time.December, Day: 25, Func: cal.CalcDayOfMonth},
		{Name: "Drugi dzień Bożego Narodzenia", Type: cal.ObservancePublic, Month: time.December, Day: 26, Func: cal.CalcDayOfMonth},
		easterSunday,
		{Name: "Poniedziałek Wielkanocny", Type: cal.ObservancePublic, Offset: 1, Func: cal.CalcEasterOffset},
		{Name: "Zielone Świątki", Type: cal.ObservancePublic, Offset: 49, Func: cal.CalcEasterOffset},
		{Name: "Boże Ciało", Type: cal.ObservancePublic, Offset: 60, Func: cal.CalcEasterOffset},
	}
)

// EasterSunday returns the date of (Gregorian) Easter Sunday for the year
func EasterSunday(year int) time.Time {
	actual, _ := easterSunday.Calc(year)
	return dateOnly(actual)
}

// PolishCalendar implements Calendar with the Polish public holiday list.
// Each year is computed once and memoized.
type PolishCalendar struct {
	logger  *zap.Logger
	cache   map[int]HolidaySet
	cacheMu sync.RWMutex
}

// NewPolishCalendar creates a new PolishCalendar instance
func NewPolishCalendar(logger *zap.Logger) *PolishCalendar {
	return &PolishCalendar{
		logger: logger,
		cache:  make(map[int]HolidaySet),
	}
}

// Holidays returns the holiday set for the year
func (c *PolishCalendar) Holidays(year int) HolidaySet {
	c.cacheMu.RLock()
	if set, ok := c.cache[year]; ok {
		c.cacheMu.RUnlock()
		return set
	}
	c.cacheMu.RUnlock()

	set := make(HolidaySet, len(polishHolidays))
	for _, h := range polishHolidays {
		actual, _ := h.Calc(year)
		if actual.IsZero() {
			continue
		}
		set[dateOnly(actual).Format("2006-01-02")] = h.Name
	}

	c.cacheMu.Lock()
	c.cache[year] = set
	c.cacheMu.Unlock()

	c.logger.Debug("Holiday set computed",
		zap.Int("year", year),
		zap.Int("holidays", len(set)))

	return set
}

// IsHoliday checks if the given date is a public holiday
func (c *PolishCalendar) IsHoliday(date time.Time) bool {
	return c.Holidays(date.Year()).Contains(date)
}

// GetDayInfo returns detailed info for a specific day
func (c *PolishCalendar) GetDayInfo(date time.Time) DayInfo {
	day := dateOnly(date)
	name, ok := c.Holidays(day.Year())[day.Format("2006-01-02")]
	return DayInfo{
		Date:      day,
		Weekday:   dateutil.ISOWeekday(day),
		IsWeekend: dateutil.IsWeekend(day),
		IsHoliday: ok,
		Name:      name,
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
