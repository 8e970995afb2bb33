package schedule

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/podroznik/pkg/dateutil"
)

// HolidayChecker reports public holidays; calendar.Calendar satisfies it
type HolidayChecker interface {
	IsHoliday(date time.Time) bool
}

var (
	periodIntroRe = regexp.MustCompile(`\bw\s+okresie\b`)
	daysClauseRe  = regexp.MustCompile(`\b(?:w|we)\s+(.+)`)
)

const (
	markerExclusion = "nie kursuje"
	markerInclusion = "kursuje"
	markerDaily     = "codziennie"
)

// Engine decides whether a departure runs on a given date from its free-text remarks
type Engine struct {
	holidays HolidayChecker
	parser   *DayRuleParser
	logger   *zap.Logger
}

// NewEngine creates an engine using the Polish lexicon
func NewEngine(holidays HolidayChecker, logger *zap.Logger) *Engine {
	return NewEngineWithParser(holidays, defaultDayRuleParser, logger)
}

// NewEngineWithParser creates an engine with a custom day-rule parser
func NewEngineWithParser(holidays HolidayChecker, parser *DayRuleParser, logger *zap.Logger) *Engine {
	return &Engine{
		holidays: holidays,
		parser:   parser,
		logger:   logger,
	}
}

// remark is one inclusion or exclusion remark with its date-independent parts resolved
type remark struct {
	text  string
	daily bool
	rule  *DayRule
}

// Predicate builds the applicability predicate for a list of remarks.
// The returned function holds no mutable state and may be called repeatedly.
func (e *Engine) Predicate(remarks []string) func(date time.Time) bool {
	var inclusions, exclusions []remark

	for _, raw := range remarks {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		folded := e.parser.lexicon.Fold(text)

		var list *[]remark
		switch {
		case strings.Contains(folded, markerExclusion):
			list = &exclusions
		case strings.Contains(folded, markerInclusion):
			list = &inclusions
		default:
			continue
		}

		r := remark{text: text, daily: strings.Contains(folded, markerDaily)}
		if !r.daily {
			if clause, ok := extractDaysClause(folded); ok {
				if rule, ok := e.parser.Parse(clause); ok {
					r.rule = &rule
					e.logger.Debug("Day rule parsed",
						zap.String("clause", clause),
						zap.Stringer("rule", rule))
				}
			}
		}
		*list = append(*list, r)
	}

	return func(date time.Time) bool {
		day := dateutil.CalendarDate(date)
		weekday := dateutil.ISOWeekday(day)
		isHoliday := e.holidays != nil && e.holidays.IsHoliday(day)

		included := true
		parsedInclusion := false
		for _, r := range inclusions {
			res, definite := r.inclusion(day, weekday, isHoliday)
			if !definite {
				e.logger.Debug("Ignoring unclassifiable inclusion remark", zap.String("remark", r.text))
				continue
			}
			if !parsedInclusion {
				parsedInclusion = true
				included = false
			}
			if res {
				included = true
				break
			}
		}
		if !included {
			return false
		}

		for _, r := range exclusions {
			if res, definite := r.exclusion(day, weekday, isHoliday); definite && res {
				return false
			}
		}
		return true
	}
}

// Applies reports whether the departure runs on the date
func (e *Engine) Applies(rec DepartureRecord, date time.Time) bool {
	return e.Predicate(rec.Remarks)(date)
}

// dateConstraint evaluates the explicit dates of a remark; ranges take precedence over single dates
func (r remark) dateConstraint(day time.Time) (present, ok bool) {
	year := day.Year()
	if ranges := ExtractDateRanges(r.text, year); len(ranges) > 0 {
		for _, dr := range ranges {
			if dr.Contains(day) {
				return true, true
			}
		}
		return true, false
	}
	if singles := ExtractSingleDates(r.text, year); len(singles) > 0 {
		for _, s := range singles {
			if s.Equal(day) {
				return true, true
			}
		}
		return true, false
	}
	return false, true
}

// inclusion returns definite=false for a remark with neither a date constraint nor a parseable day rule
func (r remark) inclusion(day time.Time, weekday int, isHoliday bool) (res, definite bool) {
	present, dateOk := r.dateConstraint(day)
	if !dateOk {
		return false, true
	}
	if r.daily {
		return true, true
	}
	if r.rule == nil {
		return true, present
	}
	return r.rule.Matches(weekday, isHoliday), true
}

func (r remark) exclusion(day time.Time, weekday int, isHoliday bool) (res, definite bool) {
	present, dateOk := r.dateConstraint(day)
	if present && !dateOk {
		return false, true
	}
	if r.daily {
		return true, true
	}
	if r.rule == nil {
		return dateOk, present
	}
	return dateOk && r.rule.Matches(weekday, isHoliday), true
}

// extractDaysClause cuts "pn-pt" out of "kursuje w pn-pt w okresie 1.IX-30.VI".
// The text must already be folded.
func extractDaysClause(folded string) (string, bool) {
	t := periodIntroRe.Split(folded, 2)[0]
	t = strings.TrimSpace(t)
	if t == "" {
		return "", false
	}

	if m := daysClauseRe.FindStringSubmatch(t); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			return v, true
		}
		return "", false
	}

	for _, phrase := range []string{"dni robocze", "dni wolne"} {
		if strings.Contains(t, phrase) {
			return phrase, true
		}
	}
	return "", false
}
