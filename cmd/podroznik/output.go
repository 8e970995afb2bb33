package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/username/podroznik/internal/calendar"
	"github.com/username/podroznik/internal/monitor"
	"github.com/username/podroznik/internal/schedule"
	"github.com/username/podroznik/internal/upstream"
	"github.com/username/podroznik/pkg/dateutil"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

var weekdayNames = [...]string{"", "poniedziałek", "wtorek", "środa", "czwartek", "piątek", "sobota", "niedziela"}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func checkFormat(format string) error {
	if format != formatJSON && format != formatTable {
		return fmt.Errorf("unknown format %q, want json or table", format)
	}
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func writeSuggestions(w io.Writer, suggestions []upstream.Suggestion, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		if suggestions == nil {
			suggestions = []upstream.Suggestion{}
		}
		return writeJSON(w, suggestions)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Name", "Place", "Stop ID"})
	for _, s := range suggestions {
		stopID, _ := s.StopID()
		t.AppendRow(table.Row{s.Name, s.PlaceDataString, stopID})
	}
	t.AppendFooter(table.Row{"", "Total", len(suggestions)})
	t.Render()
	return nil
}

func suggestionNames(suggestions []upstream.Suggestion, limit int) string {
	names := make([]string, 0, limit)
	for i, s := range suggestions {
		if i == limit {
			names = append(names, "...")
			break
		}
		names = append(names, s.Name)
	}
	return strings.Join(names, "; ")
}

func writeTimetable(w io.Writer, tt schedule.Timetable, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		if tt.Destinations == nil {
			tt.Destinations = []schedule.DestinationGroup{}
		}
		return writeJSON(w, tt)
	}

	t := newTable(w)
	if tt.Stop.Name != "" {
		t.SetTitle(strings.TrimSpace(tt.Stop.City + " " + tt.Stop.Name))
	}
	t.AppendHeader(table.Row{"Destination", "Time", "Carrier", "Validity", "Notes"})
	total := 0
	for _, g := range tt.Destinations {
		for _, d := range g.Departures {
			t.AppendRow(table.Row{g.Destination, d.Time, d.Carrier, d.Validity(), strings.Join(d.Notes(), "; ")})
			total++
		}
		t.AppendSeparator()
	}
	t.AppendFooter(table.Row{"", "", "", "Departures", total})
	t.Render()
	return nil
}

func writeSearchResults(w io.Writer, results []schedule.SearchResultRecord, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == formatJSON {
		if results == nil {
			results = []schedule.SearchResultRecord{}
		}
		return writeJSON(w, results)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Departure", "Arrival", "Duration", "Carriers", "Remarks"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Departure, r.Arrival, r.Duration, strings.Join(r.Carriers, ", "), strings.Join(r.Remarks, "; ")})
	}
	t.Render()
	return nil
}

func printVerdict(w io.Writer, runs bool, day time.Time) {
	label := fmt.Sprintf("%s (%s)", day.Format(dateutil.ISODate), weekdayNames[dateutil.ISOWeekday(day)])
	if runs {
		okColor.Fprint(w, "RUNS")
	} else {
		failColor.Fprint(w, "DOES NOT RUN")
	}
	fmt.Fprintf(w, " on %s\n", label)
}

func writeDayInfo(w io.Writer, info calendar.DayInfo) {
	fmt.Fprintf(w, "%s %s", info.Date.Format(dateutil.ISODate), weekdayNames[info.Weekday])
	if info.IsWeekend {
		fmt.Fprint(w, " (weekend)")
	}
	if info.IsHoliday {
		failColor.Fprintf(w, " święto: %s", info.Name)
	}
	fmt.Fprintln(w)
}

func writeReport(w io.Writer, res monitor.Result) {
	report := res.Report()
	status, rest, _ := strings.Cut(report, "\n")
	if res.OK {
		okColor.Fprintln(w, status)
	} else {
		failColor.Fprintln(w, status)
	}
	io.WriteString(w, rest)
}
