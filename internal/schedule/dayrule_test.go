package schedule

import (
	"reflect"
	"testing"
)

func TestParseDayRule(t *testing.T) {
	tests := []struct {
		name        string
		clause      string
		wantDays    []int
		wantInclude bool
		wantExclude bool
	}{
		{"working days", "dni robocze", []int{1, 2, 3, 4, 5}, false, true},
		{"days off", "dni wolne", []int{6, 7}, true, false},
		{"range", "pn-pt", []int{1, 2, 3, 4, 5}, false, false},
		{"range with spaces and en dash", "pn – pt", []int{1, 2, 3, 4, 5}, false, false},
		{"wrapping range", "pt-pn", []int{1, 5, 6, 7}, false, false},
		{"list", "sb, nd", []int{6, 7}, false, false},
		{"conjunction", "soboty i niedziele", []int{6, 7}, false, false},
		{"oraz", "wtorki oraz czwartki", []int{2, 4}, false, false},
		{"diacritics", "Śr, Czw", []int{3, 4}, false, false},
		{"full names", "poniedziałki, piątki", []int{1, 5}, false, false},
		{"except holidays", "pn-pt oprócz świąt", []int{1, 2, 3, 4, 5}, false, true},
		{"z wyjatkiem", "pn - sb z wyjątkiem świąt", []int{1, 2, 3, 4, 5, 6}, false, true},
		{"sundays and holidays", "niedziele i święta", []int{7}, true, false},
		{"holidays only", "święta", nil, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := ParseDayRule(tt.clause)
			if !ok {
				t.Fatalf("ParseDayRule(%q) returned no rule", tt.clause)
			}
			if got := rule.Weekdays.Days(); !reflect.DeepEqual(got, tt.wantDays) {
				t.Errorf("ParseDayRule(%q) weekdays = %v, want %v", tt.clause, got, tt.wantDays)
			}
			if rule.IncludeHolidays != tt.wantInclude {
				t.Errorf("ParseDayRule(%q) IncludeHolidays = %v, want %v", tt.clause, rule.IncludeHolidays, tt.wantInclude)
			}
			if rule.ExcludeHolidays != tt.wantExclude {
				t.Errorf("ParseDayRule(%q) ExcludeHolidays = %v, want %v", tt.clause, rule.ExcludeHolidays, tt.wantExclude)
			}
		})
	}
}

func TestParseDayRule_Unrecognized(t *testing.T) {
	for _, clause := range []string{"", "   ", "dniach 24.12.2025", "wg potrzeb", "1.09.2025-30.06.2026"} {
		if rule, ok := ParseDayRule(clause); ok {
			t.Errorf("ParseDayRule(%q) = %+v, want no rule", clause, rule)
		}
	}
}

func TestDayRule_String(t *testing.T) {
	tests := []struct {
		clause string
		want   string
	}{
		{"pn-pt oprócz świąt", "1,2,3,4,5 -holidays"},
		{"niedziele i święta", "7 +holidays"},
		{"święta", "+holidays"},
		{"sb, nd", "6,7"},
	}
	for _, tt := range tests {
		rule, ok := ParseDayRule(tt.clause)
		if !ok {
			t.Fatalf("ParseDayRule(%q) found no rule", tt.clause)
		}
		if got := rule.String(); got != tt.want {
			t.Errorf("ParseDayRule(%q).String() = %q, want %q", tt.clause, got, tt.want)
		}
	}

	if !WeekdaySet(0).Empty() || WeekdaysOf(3).Empty() {
		t.Error("Empty() should only hold for the zero set")
	}
}

func TestDayRule_Matches(t *testing.T) {
	workingDays, _ := ParseDayRule("dni robocze")
	daysOff, _ := ParseDayRule("dni wolne")

	tests := []struct {
		name      string
		rule      DayRule
		weekday   int
		isHoliday bool
		want      bool
	}{
		{"working days on plain Tuesday", workingDays, 2, false, true},
		{"working days on Saturday", workingDays, 6, false, false},
		{"working days on holiday Tuesday", workingDays, 2, true, false},
		{"days off on Saturday", daysOff, 6, false, true},
		{"days off on holiday Wednesday", daysOff, 3, true, true},
		{"days off on plain Wednesday", daysOff, 3, false, false},
		{"weekdays without flags on holiday", DayRule{Weekdays: WeekdaysOf(1, 2)}, 1, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Matches(tt.weekday, tt.isHoliday); got != tt.want {
				t.Errorf("Matches(%d, %v) = %v, want %v", tt.weekday, tt.isHoliday, got, tt.want)
			}
		})
	}
}

func TestExpandWeekdayRange(t *testing.T) {
	tests := []struct {
		start, end int
		want       []int
	}{
		{5, 1, []int{1, 5, 6, 7}},
		{1, 5, []int{1, 2, 3, 4, 5}},
		{3, 3, []int{3}},
		{7, 6, []int{1, 2, 3, 4, 5, 6, 7}},
	}

	for _, tt := range tests {
		if got := expandWeekdayRange(tt.start, tt.end).Days(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("expandWeekdayRange(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestPolishLexicon_Fold(t *testing.T) {
	lex := PolishLexicon{}
	if got := lex.Fold("Kursuje ŚWIĘTA, źdźbło, Łódź"); got != "kursuje swieta, zdzblo, lodz" {
		t.Errorf("Fold() = %q", got)
	}
}
