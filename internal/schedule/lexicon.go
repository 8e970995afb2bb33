package schedule

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lexicon supplies the locale-specific vocabulary of operating-days clauses.
// The day-rule combinator only sees folded text and weekday numbers, so another
// locale can be plugged in without touching range or holiday logic.
type Lexicon interface {
	// Fold lower-cases the text and strips diacritics
	Fold(s string) string

	// Weekday resolves a folded weekday token (abbreviation or full name) to 1..7
	Weekday(token string) (int, bool)

	// NamedRule recognizes whole-clause phrases such as "working days"
	NamedRule(folded string) (DayRule, bool)

	// HolidayFlags reports whether the clause includes holidays and whether it explicitly excludes them
	HolidayFlags(folded string) (include, exclude bool)

	// SplitList splits an enumeration ("pn, sr i pt") into its items
	SplitList(folded string) []string
}

// PolishLexicon is the Lexicon for Polish timetable remarks
type PolishLexicon struct{}

var (
	// stems of "święto" in all cases: święta, świąt, świętach, świętami
	plHolidayRe = regexp.MustCompile(`\bswi[ae]t\w*`)
	plExceptRe  = regexp.MustCompile(`\b(?:oprocz|z\s+wyjatkiem|poza)\b.{0,40}?\bswi[ae]t\w*`)
	plConjRe    = regexp.MustCompile(`\s+(?:i|oraz)\s+`)
	plListSepRe = regexp.MustCompile(`\s*[,;]\s*`)
	nonLetterRe = regexp.MustCompile(`[^a-z]`)
)

// plWeekdayPrefixes lists folded prefixes per weekday, longest forms first
var plWeekdayPrefixes = []struct {
	day      int
	exact    string
	prefixes []string
}{
	{1, "pn", []string{"pon"}},
	{2, "wt", []string{"wto"}},
	{3, "sr", []string{"sro"}},
	{4, "cz", []string{"czw"}},
	{5, "pt", []string{"pia"}},
	{6, "sb", []string{"sob"}},
	{7, "nd", []string{"nie"}},
}

// Fold lower-cases the text and strips Polish diacritics (ł has no decomposition and is mapped explicitly)
func (PolishLexicon) Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.NewReplacer("ł", "l", "Ł", "l").Replace(folded)
}

// Weekday resolves the first word of a folded token to an ISO weekday
func (PolishLexicon) Weekday(token string) (int, bool) {
	fields := strings.Fields(token)
	if len(fields) == 0 {
		return 0, false
	}
	t := nonLetterRe.ReplaceAllString(fields[0], "")
	if t == "" {
		return 0, false
	}

	for _, w := range plWeekdayPrefixes {
		if t == w.exact {
			return w.day, true
		}
		for _, p := range w.prefixes {
			if strings.HasPrefix(t, p) {
				return w.day, true
			}
		}
	}
	return 0, false
}

// NamedRule recognizes "dni robocze" (Mon-Fri except holidays) and "dni wolne" (weekends and holidays)
func (PolishLexicon) NamedRule(folded string) (DayRule, bool) {
	switch {
	case strings.Contains(folded, "dni robocze"):
		return DayRule{Weekdays: WeekdaysOf(1, 2, 3, 4, 5), ExcludeHolidays: true}, true
	case strings.Contains(folded, "dni wolne"):
		return DayRule{Weekdays: WeekdaysOf(6, 7), IncludeHolidays: true}, true
	}
	return DayRule{}, false
}

// HolidayFlags detects "w święta" (include) and "oprócz świąt" / "z wyjątkiem świąt" (exclude).
// A holiday word that only appears inside an exception phrase does not count as inclusion.
func (PolishLexicon) HolidayFlags(folded string) (include, exclude bool) {
	exclude = plExceptRe.MatchString(folded)
	rest := plExceptRe.ReplaceAllString(folded, " ")
	include = plHolidayRe.MatchString(rest)
	return include, exclude
}

// SplitList normalizes "i"/"oraz" to commas and splits on commas
func (PolishLexicon) SplitList(folded string) []string {
	s := plConjRe.ReplaceAllString(folded, ", ")
	var out []string
	for _, p := range plListSepRe.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
