package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/username/podroznik/pkg/dateutil"
)

// Go's regexp has no lookahead: [IVX]+ is matched greedily and validated by romanMonth,
// which rejects partial numerals such as XIII the same way a "not followed by I/V/X" guard would.
var (
	numericRangeRe = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})\s*[-–]\s*(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	romanRangeRe   = regexp.MustCompile(`(?i)(\d{1,2})\.([IVX]+)(?:\.(\d{4}))?\s*[-–]\s*(\d{1,2})\.([IVX]+)(?:\.(\d{4}))?`)
	numericDateRe  = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`)
	romanDateRe    = regexp.MustCompile(`(?i)\b(\d{1,2})\.([IVX]+)(?:\.(\d{4}))?\b`)
)

var romanMonths = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5, "VI": 6,
	"VII": 7, "VIII": 8, "IX": 9, "X": 10, "XI": 11, "XII": 12,
}

func romanMonth(s string) (int, bool) {
	m, ok := romanMonths[strings.ToUpper(s)]
	return m, ok
}

// ExtractDateRanges finds "dd.mm.yyyy - dd.mm.yyyy" and "d.ROMAN[.yyyy] - d.ROMAN[.yyyy]" ranges.
// contextYear (0 = unknown) resolves Roman-numeral ranges written without any year; such a range
// whose end precedes its start crosses New Year and yields two candidate ranges.
func ExtractDateRanges(text string, contextYear int) []DateRange {
	var out []DateRange

	for _, g := range numericRangeRe.FindAllStringSubmatch(text, -1) {
		start, ok1 := dateFromParts(g[3], g[2], g[1])
		end, ok2 := dateFromParts(g[6], g[5], g[4])
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, orderedRange(start, end))
	}

	for _, g := range romanRangeRe.FindAllStringSubmatch(text, -1) {
		d1, _ := strconv.Atoi(g[1])
		d2, _ := strconv.Atoi(g[4])
		m1, ok1 := romanMonth(g[2])
		m2, ok2 := romanMonth(g[5])
		if !ok1 || !ok2 {
			continue
		}

		y1, y2 := atoiOrZero(g[3]), atoiOrZero(g[6])
		startBorrowed, endBorrowed := y1 == 0 && y2 != 0, y2 == 0 && y1 != 0
		if startBorrowed {
			y1 = y2
		}
		if endBorrowed {
			y2 = y1
		}

		if y1 == 0 {
			if contextYear == 0 {
				continue
			}
			out = append(out, yearlessRanges(contextYear, m1, d1, m2, d2)...)
			continue
		}

		// "20.XII-6.I.2026": the side without a year belongs to the adjacent year
		if startBorrowed && (m1 > m2 || (m1 == m2 && d1 > d2)) {
			y1--
		}
		if endBorrowed && (m1 > m2 || (m1 == m2 && d1 > d2)) {
			y2++
		}

		start, okStart := dateutil.Date(y1, m1, d1)
		end, okEnd := dateutil.Date(y2, m2, d2)
		if !okStart || !okEnd {
			continue
		}
		out = append(out, orderedRange(start, end))
	}

	return out
}

func yearlessRanges(year, m1, d1, m2, d2 int) []DateRange {
	startThis, ok1 := dateutil.Date(year, m1, d1)
	endThis, ok2 := dateutil.Date(year, m2, d2)
	if !ok1 || !ok2 {
		return nil
	}
	if !startThis.After(endThis) {
		return []DateRange{{Start: startThis, End: endThis}}
	}

	var out []DateRange
	if startPrev, ok := dateutil.Date(year-1, m1, d1); ok {
		out = append(out, DateRange{Start: startPrev, End: endThis})
	}
	if endNext, ok := dateutil.Date(year+1, m2, d2); ok {
		out = append(out, DateRange{Start: startThis, End: endNext})
	}
	return out
}

// ExtractSingleDates finds standalone "dd.mm.yyyy" and "d.ROMAN[.yyyy]" dates.
// Roman-numeral dates without a year take contextYear (skipped when it is 0).
// Duplicates are removed, first occurrence order is kept.
func ExtractSingleDates(text string, contextYear int) []time.Time {
	var out []time.Time
	seen := make(map[time.Time]bool)
	add := func(t time.Time) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	for _, g := range numericDateRe.FindAllStringSubmatch(text, -1) {
		if t, ok := dateFromParts(g[3], g[2], g[1]); ok {
			add(t)
		}
	}

	for _, g := range romanDateRe.FindAllStringSubmatch(text, -1) {
		m, ok := romanMonth(g[2])
		if !ok {
			continue
		}
		y := atoiOrZero(g[3])
		if y == 0 {
			y = contextYear
		}
		if y == 0 {
			continue
		}
		d, _ := strconv.Atoi(g[1])
		if t, ok := dateutil.Date(y, m, d); ok {
			add(t)
		}
	}

	return out
}

func dateFromParts(year, month, day string) (time.Time, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return dateutil.Date(y, m, d)
}

func orderedRange(a, b time.Time) DateRange {
	if a.After(b) {
		a, b = b, a
	}
	return DateRange{Start: a, End: b}
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
