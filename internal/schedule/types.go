package schedule

import (
	"strconv"
	"strings"
	"time"
)

// DepartureRecord is one scheduled departure as extracted from an upstream timetable page.
// Remarks keep the upstream order; the first one is usually the validity clause.
type DepartureRecord struct {
	ID      string   `json:"id,omitempty"`
	Time    string   `json:"time"`
	Carrier string   `json:"carrier"`
	Remarks []string `json:"remarks"`
}

// Validity returns the first remark, which upstream uses for the operating-days clause
func (d DepartureRecord) Validity() string {
	if len(d.Remarks) == 0 {
		return ""
	}
	return d.Remarks[0]
}

// Notes returns the remarks after the validity clause
func (d DepartureRecord) Notes() []string {
	if len(d.Remarks) < 2 {
		return nil
	}
	return d.Remarks[1:]
}

// DestinationGroup lists the departures from a stop towards one destination
type DestinationGroup struct {
	Destination string            `json:"destination"`
	Through     []string          `json:"through,omitempty"`
	Departures  []DepartureRecord `json:"departures"`
}

// Stop identifies the stop a timetable belongs to
type Stop struct {
	Name   string `json:"name"`
	City   string `json:"city"`
	StopID string `json:"stopId"`
}

// StopOption is one entry of the stop switcher shown next to a timetable
type StopOption struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Group    string `json:"group,omitempty"`
	Selected bool   `json:"selected"`
}

// Timetable is the general timetable of a stop
type Timetable struct {
	Stop         Stop               `json:"stop"`
	StopOptions  []StopOption       `json:"stopOptions,omitempty"`
	Destinations []DestinationGroup `json:"destinations"`
}

// SearchResultRecord is one connection from a search results page
type SearchResultRecord struct {
	ID        string   `json:"id"`
	Departure string   `json:"departure"`
	Arrival   string   `json:"arrival"`
	Duration  string   `json:"duration,omitempty"`
	Carriers  []string `json:"carriers,omitempty"`
	Remarks   []string `json:"remarks,omitempty"`
}

// DateRange is an inclusive range of calendar dates (UTC midnights), Start <= End
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the date falls within the range
func (r DateRange) Contains(date time.Time) bool {
	return !date.Before(r.Start) && !date.After(r.End)
}

// WeekdaySet is a set of ISO weekdays (1 = Monday .. 7 = Sunday)
type WeekdaySet uint8

// Add returns the set with the weekday added
func (s WeekdaySet) Add(weekday int) WeekdaySet {
	if weekday < 1 || weekday > 7 {
		return s
	}
	return s | 1<<uint(weekday-1)
}

// Has reports whether the weekday is in the set
func (s WeekdaySet) Has(weekday int) bool {
	if weekday < 1 || weekday > 7 {
		return false
	}
	return s&(1<<uint(weekday-1)) != 0
}

// Empty reports whether no weekday is set
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Days returns the weekdays in ascending order
func (s WeekdaySet) Days() []int {
	var out []int
	for d := 1; d <= 7; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// WeekdaysOf builds a set from weekday numbers
func WeekdaysOf(days ...int) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

// DayRule is a parsed operating-days clause.
// Weekdays is empty only when IncludeHolidays is set.
type DayRule struct {
	Weekdays        WeekdaySet
	IncludeHolidays bool
	ExcludeHolidays bool
}

// String renders the rule as "1,2,3,4,5 -holidays" for logs
func (r DayRule) String() string {
	days := r.Weekdays.Days()
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	s := strings.Join(parts, ",")
	if r.IncludeHolidays {
		s += " +holidays"
	}
	if r.ExcludeHolidays {
		s += " -holidays"
	}
	return strings.TrimSpace(s)
}

// Matches reports whether a day with the given ISO weekday and holiday status satisfies the rule
func (r DayRule) Matches(weekday int, isHoliday bool) bool {
	if r.IncludeHolidays && isHoliday {
		return true
	}
	if r.Weekdays.Has(weekday) {
		return !(r.ExcludeHolidays && isHoliday)
	}
	return false
}
