package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEasterSunday(t *testing.T) {
	tests := []struct {
		year int
		want time.Time
	}{
		{2024, date(2024, time.March, 31)},
		{2025, date(2025, time.April, 20)},
		{2026, date(2026, time.April, 5)},
		{2019, date(2019, time.April, 21)},
	}

	for _, tt := range tests {
		got := EasterSunday(tt.year)
		if !got.Equal(tt.want) {
			t.Errorf("EasterSunday(%d) = %s, want %s", tt.year, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
		}
	}
}

func TestPolishCalendar_MoveableFeasts2025(t *testing.T) {
	cal := NewPolishCalendar(zap.NewNop())
	easter := EasterSunday(2025)

	tests := []struct {
		name string
		date time.Time
	}{
		{"Easter Sunday", easter},
		{"Easter Monday", easter.AddDate(0, 0, 1)},
		{"Pentecost", easter.AddDate(0, 0, 49)},
		{"Corpus Christi", easter.AddDate(0, 0, 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !cal.IsHoliday(tt.date) {
				t.Errorf("%s (%s) should be a holiday", tt.name, tt.date.Format("2006-01-02"))
			}
		})
	}

	corpusChristi := date(2025, time.June, 19)
	if !easter.AddDate(0, 0, 60).Equal(corpusChristi) {
		t.Errorf("Corpus Christi 2025 = %s, want 2025-06-19", easter.AddDate(0, 0, 60).Format("2006-01-02"))
	}
}

func TestPolishCalendar_FixedHolidays(t *testing.T) {
	cal := NewPolishCalendar(zap.NewNop())

	holidays := []time.Time{
		date(2025, time.January, 1),
		date(2025, time.January, 6),
		date(2025, time.May, 1),
		date(2025, time.May, 3),
		date(2025, time.August, 15),
		date(2025, time.November, 1),
		date(2025, time.November, 11),
		date(2025, time.December, 24),
		date(2025, time.December, 25),
		date(2025, time.December, 26),
	}
	for _, d := range holidays {
		if !cal.IsHoliday(d) {
			t.Errorf("%s should be a holiday", d.Format("2006-01-02"))
		}
	}

	workdays := []time.Time{
		date(2025, time.January, 2),
		date(2025, time.April, 22),
		date(2025, time.December, 27),
	}
	for _, d := range workdays {
		if cal.IsHoliday(d) {
			t.Errorf("%s should not be a holiday", d.Format("2006-01-02"))
		}
	}

	if got := len(cal.Holidays(2025)); got != 14 {
		t.Errorf("Holidays(2025) has %d entries, want 14", got)
	}
}

func TestPolishCalendar_ChristmasEveFrom2025(t *testing.T) {
	cal := NewPolishCalendar(zap.NewNop())

	if cal.IsHoliday(date(2024, time.December, 24)) {
		t.Error("2024-12-24 was a working day")
	}
	if got := len(cal.Holidays(2024)); got != 13 {
		t.Errorf("Holidays(2024) has %d entries, want 13", got)
	}
	info := cal.GetDayInfo(date(2026, time.December, 24))
	if !info.IsHoliday || info.Name != "Wigilia Bożego Narodzenia" {
		t.Errorf("2026-12-24 = %+v, want Wigilia Bożego Narodzenia", info)
	}
}

func TestPolishCalendar_IgnoresTimeOfDay(t *testing.T) {
	cal := NewPolishCalendar(zap.NewNop())
	loc := time.FixedZone("CET", 3600)

	if !cal.IsHoliday(time.Date(2025, time.December, 25, 23, 30, 0, 0, loc)) {
		t.Error("late evening of Christmas Day should still be a holiday")
	}
}

func TestPolishCalendar_GetDayInfo(t *testing.T) {
	cal := NewPolishCalendar(zap.NewNop())

	info := cal.GetDayInfo(date(2025, time.November, 11))
	if !info.IsHoliday {
		t.Fatal("2025-11-11 should be a holiday")
	}
	if info.Weekday != 2 {
		t.Errorf("Weekday = %d, want 2 (Tuesday)", info.Weekday)
	}
	if info.Name != "Święto Niepodległości" {
		t.Errorf("Name = %q", info.Name)
	}

	if info.IsWeekend {
		t.Error("2025-11-11 is a Tuesday, not a weekend")
	}

	info = cal.GetDayInfo(date(2025, time.November, 12))
	if info.IsHoliday || info.Name != "" {
		t.Errorf("2025-11-12 should be a plain day, got %+v", info)
	}

	info = cal.GetDayInfo(date(2025, time.November, 15))
	if !info.IsWeekend || info.Weekday != 6 {
		t.Errorf("2025-11-15 should be a Saturday weekend, got %+v", info)
	}
}

func TestCompositeCalendar_ExtraHolidaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.txt")
	content := "# extra days off\n2025-12-31 Sylwester\n\nnot-a-date whatever\n2026-05-02\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	c, err := New(path, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if !c.IsHoliday(date(2025, time.December, 31)) {
		t.Error("2025-12-31 should come from the extra file")
	}
	if !c.IsHoliday(date(2026, time.May, 2)) {
		t.Error("2026-05-02 should come from the extra file")
	}
	if !c.IsHoliday(date(2025, time.December, 25)) {
		t.Error("statutory holidays must still apply")
	}
	if info := c.GetDayInfo(date(2025, time.December, 31)); info.Name != "Sylwester" {
		t.Errorf("GetDayInfo name = %q, want Sylwester", info.Name)
	}
}

func TestNew_MissingExtraFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing.txt"), zap.NewNop()); err == nil {
		t.Error("New() expected error for missing extra holidays file")
	}
}
