package calendar

import "time"

// DayInfo represents holiday information about a specific day
type DayInfo struct {
	Date      time.Time
	Weekday   int // 1 = Monday .. 7 = Sunday
	IsWeekend bool
	IsHoliday bool
	Name      string
}

// HolidaySet maps ISO dates (YYYY-MM-DD) to holiday names for one year
type HolidaySet map[string]string

// Contains reports whether the date is in the set
func (s HolidaySet) Contains(date time.Time) bool {
	_, ok := s[date.Format("2006-01-02")]
	return ok
}

// Calendar answers whether a date is a public holiday
type Calendar interface {
	// IsHoliday checks if the given date is a public holiday
	IsHoliday(date time.Time) bool

	// GetDayInfo returns detailed info for a specific day
	GetDayInfo(date time.Time) DayInfo
}
