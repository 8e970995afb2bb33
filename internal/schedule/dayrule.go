package schedule

import (
	"regexp"
	"strings"
)

var weekdayRangeSepRe = regexp.MustCompile(`\s*[-–]\s*`)

// DayRuleParser turns an operating-days clause ("pn-pt", "sb, nd", "dni robocze") into a DayRule
type DayRuleParser struct {
	lexicon Lexicon
}

// NewDayRuleParser creates a parser for the given locale
func NewDayRuleParser(lexicon Lexicon) *DayRuleParser {
	return &DayRuleParser{lexicon: lexicon}
}

var defaultDayRuleParser = NewDayRuleParser(PolishLexicon{})

// ParseDayRule parses a Polish operating-days clause
func ParseDayRule(clause string) (DayRule, bool) {
	return defaultDayRuleParser.Parse(clause)
}

// Parse returns false when the clause names neither a weekday nor holidays
func (p *DayRuleParser) Parse(clause string) (DayRule, bool) {
	c := strings.TrimSpace(p.lexicon.Fold(clause))
	if c == "" {
		return DayRule{}, false
	}

	if rule, ok := p.lexicon.NamedRule(c); ok {
		return rule, true
	}

	include, exclude := p.lexicon.HolidayFlags(c)

	var days WeekdaySet
	for _, item := range p.lexicon.SplitList(c) {
		bounds := weekdayRangeSepRe.Split(item, 2)
		if len(bounds) == 2 {
			start, ok1 := p.lexicon.Weekday(bounds[0])
			end, ok2 := p.lexicon.Weekday(bounds[1])
			if !ok1 || !ok2 {
				continue
			}
			days |= expandWeekdayRange(start, end)
			continue
		}

		if day, ok := p.lexicon.Weekday(item); ok {
			days = days.Add(day)
		}
	}

	if days.Empty() && !include {
		return DayRule{}, false
	}

	return DayRule{
		Weekdays:        days,
		IncludeHolidays: include,
		ExcludeHolidays: exclude,
	}, true
}

// expandWeekdayRange walks 1..7 cyclically, so pt-pn (5-1) yields {5,6,7,1}
func expandWeekdayRange(start, end int) WeekdaySet {
	var s WeekdaySet
	d := start
	for i := 0; i < 7; i++ {
		s = s.Add(d)
		if d == end {
			break
		}
		d++
		if d == 8 {
			d = 1
		}
	}
	return s
}
