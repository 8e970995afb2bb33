package dateutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODate is the canonical date layout used across the module
const ISODate = "2006-01-02"

var (
	isoDateRe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	dottedDateRe  = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	compactDateRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)

	timeJunkRe   = regexp.MustCompile(`[^0-9:.,]`)
	colonTimeRe  = regexp.MustCompile(`^(\d{1,2}):(\d{1,2})(?::(\d{1,2}))?(?::\d+)?$`)
	digitsTimeRe = regexp.MustCompile(`^\d{1,4}$`)
	strictHMRe   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// StartOfDay returns the start of the day (00:00:00) for the given date
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// CalendarDate keeps the wall-clock date of t and returns it as a UTC midnight
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar date, reporting false when the day does not exist
// (e.g. 31.04 or 29.02 in a common year)
func Date(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ISOWeekday returns 1 for Monday through 7 for Sunday
func ISOWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// IsWeekend returns true if the date is Saturday or Sunday
func IsWeekend(date time.Time) bool {
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// ParseDate parses a user supplied date. Accepted forms:
//   - 2025-12-24
//   - 24.12.2025 (day and month may omit the leading zero)
//   - 20251224
//
// The result is a UTC midnight. Dates that do not exist on the calendar are rejected.
func ParseDate(dateStr string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	var y, m, d string
	if g := isoDateRe.FindStringSubmatch(s); g != nil {
		y, m, d = g[1], g[2], g[3]
	} else if g := dottedDateRe.FindStringSubmatch(s); g != nil {
		d, m, y = g[1], g[2], g[3]
	} else if g := compactDateRe.FindStringSubmatch(s); g != nil {
		y, m, d = g[1], g[2], g[3]
	} else {
		return time.Time{}, fmt.Errorf("unrecognized date format: %q", dateStr)
	}

	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)

	t, ok := Date(year, month, day)
	if !ok {
		return time.Time{}, fmt.Errorf("date does not exist: %q", dateStr)
	}
	return t, nil
}

// FormatUpstreamDate formats a date the way the upstream search form expects it (dd.mm.yyyy)
func FormatUpstreamDate(date time.Time) string {
	return date.Format("02.01.2006")
}

// NormalizeTime turns loosely typed clock input into HH:MM.
// Examples: "8:05" -> "08:05", "8.05" -> "08:05", "805" -> "08:05", "8" -> "08:00", "08:05:30" -> "08:05"
func NormalizeTime(timeStr string) (string, error) {
	s := strings.TrimSpace(timeStr)
	if s == "" {
		return "", fmt.Errorf("empty time")
	}

	s = timeJunkRe.ReplaceAllString(s, "")
	s = strings.NewReplacer(",", ":", ".", ":").Replace(s)

	var h, m int
	if g := colonTimeRe.FindStringSubmatch(s); g != nil {
		h, _ = strconv.Atoi(g[1])
		m, _ = strconv.Atoi(g[2])
	} else if digitsTimeRe.MatchString(s) {
		if len(s) <= 2 {
			h, _ = strconv.Atoi(s)
		} else {
			m, _ = strconv.Atoi(s[len(s)-2:])
			h, _ = strconv.Atoi(s[:len(s)-2])
		}
	} else {
		return "", fmt.Errorf("unrecognized time format: %q", timeStr)
	}

	if h < 0 || h > 23 || m < 0 || m > 59 {
		return "", fmt.Errorf("time out of range: %q", timeStr)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// MinutesOfDay converts a strict H:MM / HH:MM clock value to minutes since midnight
func MinutesOfDay(hm string) (int, bool) {
	g := strictHMRe.FindStringSubmatch(strings.TrimSpace(hm))
	if g == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(g[1])
	m, _ := strconv.Atoi(g[2])
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// Today returns today's date (start of day)
func Today() time.Time {
	return StartOfDay(time.Now())
}
