package schedule

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	derr "github.com/username/podroznik/internal/domain/errors"
	"github.com/username/podroznik/pkg/dateutil"
)

// Filter selects departures by operating date and an inclusive HH:MM window.
// Zero Date means no date filtering; nil bounds mean an open window on that side.
type Filter struct {
	Date    time.Time
	FromMin *int
	ToMin   *int
}

// ParseFilter builds a Filter from user input. Empty strings leave the corresponding bound unset.
func ParseFilter(date, from, to string) (Filter, error) {
	var f Filter

	if date != "" {
		d, err := dateutil.ParseDate(date)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: date: %v", derr.ErrInvalidInput, err)
		}
		f.Date = d
	}

	parseBound := func(name, value string) (*int, error) {
		if value == "" {
			return nil, nil
		}
		hm, err := dateutil.NormalizeTime(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", derr.ErrInvalidInput, name, err)
		}
		m, _ := dateutil.MinutesOfDay(hm)
		return &m, nil
	}

	var err error
	if f.FromMin, err = parseBound("from_time", from); err != nil {
		return Filter{}, err
	}
	if f.ToMin, err = parseBound("to_time", to); err != nil {
		return Filter{}, err
	}

	if f.FromMin != nil && f.ToMin != nil && *f.FromMin > *f.ToMin {
		return Filter{}, fmt.Errorf("%w: from_time %q is after to_time %q", derr.ErrInvalidInput, from, to)
	}

	return f, nil
}

// HasDate reports whether the filter restricts the operating date
func (f Filter) HasDate() bool {
	return !f.Date.IsZero()
}

// HasWindow reports whether any time bound is set
func (f Filter) HasWindow() bool {
	return f.FromMin != nil || f.ToMin != nil
}

// InWindow reports whether an HH:MM departure time satisfies the time bounds.
// Unparseable times pass only when no bound is set.
func (f Filter) InWindow(hm string) bool {
	if !f.HasWindow() {
		return true
	}
	m, ok := dateutil.MinutesOfDay(hm)
	if !ok {
		return false
	}
	if f.FromMin != nil && m < *f.FromMin {
		return false
	}
	if f.ToMin != nil && m > *f.ToMin {
		return false
	}
	return true
}

// FilterDepartures returns the departures that run on the filter date within the time window
func (e *Engine) FilterDepartures(deps []DepartureRecord, f Filter) []DepartureRecord {
	var out []DepartureRecord
	for _, d := range deps {
		if !f.InWindow(d.Time) {
			continue
		}
		if f.HasDate() && !e.Applies(d, f.Date) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// FilterDestinations filters every group and drops groups left without departures.
// The input is not modified.
func (e *Engine) FilterDestinations(groups []DestinationGroup, f Filter) []DestinationGroup {
	out := make([]DestinationGroup, 0, len(groups))
	for _, g := range groups {
		deps := e.FilterDepartures(g.Departures, f)
		if len(deps) == 0 {
			continue
		}
		g.Departures = deps
		out = append(out, g)
	}
	return out
}

// FilterTimetable returns a copy of the timetable restricted by the filter
func (e *Engine) FilterTimetable(tt Timetable, f Filter) Timetable {
	before := countDepartures(tt.Destinations)
	tt.Destinations = e.FilterDestinations(tt.Destinations, f)

	e.logger.Debug("Filtered timetable",
		zap.String("stop_id", tt.Stop.StopID),
		zap.Int("departures_before", before),
		zap.Int("departures_after", countDepartures(tt.Destinations)),
		zap.Int("destinations", len(tt.Destinations)))

	return tt
}

// FilterSearchResults applies the same date and time rules to search results
func (e *Engine) FilterSearchResults(results []SearchResultRecord, f Filter) []SearchResultRecord {
	var out []SearchResultRecord
	for _, r := range results {
		if !f.InWindow(r.Departure) {
			continue
		}
		if f.HasDate() && !e.Predicate(r.Remarks)(f.Date) {
			continue
		}
		out = append(out, r)
	}

	e.logger.Debug("Filtered search results",
		zap.Int("before", len(results)),
		zap.Int("after", len(out)))

	return out
}

func countDepartures(groups []DestinationGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Departures)
	}
	return n
}
