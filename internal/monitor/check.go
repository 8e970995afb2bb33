package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/podroznik/internal/upstream"
	"github.com/username/podroznik/pkg/dateutil"
)

// Upstream is the part of the upstream client exercised by the health check
type Upstream interface {
	EnsureInitialized(ctx context.Context) error
	Suggest(ctx context.Context, query, kind, suggestType string) (*upstream.SuggestResponse, error)
	Search(ctx context.Context, p upstream.SearchParams) (string, error)
	GeneralTimetableStop(ctx context.Context, stopID string) (string, error)
}

// Probe names what the health check exercises
type Probe struct {
	SuggestQuery string // must yield at least one suggestion
	SearchFrom   string // empty skips the search stage
	SearchTo     string
	StopID       string // general timetable that must not be empty
}

// Result is the outcome of one health check
type Result struct {
	OK      bool
	Elapsed time.Duration
	Errors  []string
	Info    []string
	At      time.Time
}

// Checker runs the upstream health check stages in order and stops at the first failure
type Checker struct {
	client Upstream
	probe  Probe
	now    func() time.Time
	logger *zap.Logger
}

// NewChecker creates a checker for the given probe
func NewChecker(client Upstream, probe Probe, logger *zap.Logger) *Checker {
	return &Checker{
		client: client,
		probe:  probe,
		now:    time.Now,
		logger: logger,
	}
}

type stage struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// Check runs every stage and reports the collected result
func (c *Checker) Check(ctx context.Context) Result {
	started := c.now()
	res := Result{At: started}

	stages := []stage{
		{"init", c.checkInit},
		{"suggest", c.checkSuggest},
	}
	if c.probe.SearchFrom != "" && c.probe.SearchTo != "" {
		stages = append(stages, stage{"search", c.checkSearch})
	}
	stages = append(stages, stage{"timetable", c.checkTimetable})

	for _, s := range stages {
		info, err := s.run(ctx)
		if err != nil {
			res.Errors = append(res.Errors, s.name+": "+errorText(err))
			break
		}
		if info != "" {
			res.Info = append(res.Info, s.name+": "+info)
		}
	}

	res.Elapsed = c.now().Sub(started)
	res.OK = len(res.Errors) == 0

	if res.OK {
		c.logger.Info("Upstream check passed", zap.Duration("elapsed", res.Elapsed))
	} else {
		c.logger.Warn("Upstream check failed",
			zap.Duration("elapsed", res.Elapsed),
			zap.Strings("errors", res.Errors))
	}
	return res
}

func (c *Checker) checkInit(ctx context.Context) (string, error) {
	return "", c.client.EnsureInitialized(ctx)
}

func (c *Checker) checkSuggest(ctx context.Context) (string, error) {
	resp, err := c.client.Suggest(ctx, c.probe.SuggestQuery, upstream.KindSource, "ALL")
	if err != nil {
		return "", err
	}
	if len(resp.Suggestions) == 0 {
		return "", fmt.Errorf("empty suggestions for %q", c.probe.SuggestQuery)
	}
	return fmt.Sprintf("ok (count=%d)", len(resp.Suggestions)), nil
}

func (c *Checker) checkSearch(ctx context.Context) (string, error) {
	fromV, err := c.resolvePlace(ctx, c.probe.SearchFrom, upstream.KindSource)
	if err != nil {
		return "", err
	}
	toV, err := c.resolvePlace(ctx, c.probe.SearchTo, upstream.KindDestination)
	if err != nil {
		return "", err
	}

	date := dateutil.CalendarDate(c.now()).Format(dateutil.ISODate)
	html, err := c.client.Search(ctx, upstream.SearchParams{
		FromV:     fromV,
		ToV:       toV,
		FromQuery: c.probe.SearchFrom,
		ToQuery:   c.probe.SearchTo,
		Date:      date,
		OmitTime:  true,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(html) == "" {
		return "", fmt.Errorf("empty results page for %s -> %s on %s", c.probe.SearchFrom, c.probe.SearchTo, date)
	}
	return fmt.Sprintf("ok (bytes=%d, date=%s)", len(html), date), nil
}

// resolvePlace prefers the suggestion named exactly like the query and falls back to the first real one
func (c *Checker) resolvePlace(ctx context.Context, query, kind string) (string, error) {
	resp, err := c.client.Suggest(ctx, query, kind, "CITIES")
	if err != nil {
		return "", err
	}
	places := upstream.RealSuggestions(resp.Suggestions)
	if len(places) == 0 {
		return "", fmt.Errorf("suggest empty for %q (kind=%s)", query, kind)
	}
	if s, ok := upstream.PickSuggestion(query, places); ok {
		return s.PlaceDataString, nil
	}
	return places[0].PlaceDataString, nil
}

func (c *Checker) checkTimetable(ctx context.Context) (string, error) {
	html, err := c.client.GeneralTimetableStop(ctx, c.probe.StopID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(html) == "" {
		return "", fmt.Errorf("empty timetable page for stopId=%s", c.probe.StopID)
	}
	return fmt.Sprintf("ok (stopId=%s, bytes=%d)", c.probe.StopID, len(html)), nil
}

func errorText(err error) string {
	if m := strings.TrimSpace(err.Error()); m != "" {
		return m
	}
	return fmt.Sprintf("%T", err)
}

// Report renders the result in the OK/FAILED line format consumed by cron and alerting scripts
func (r Result) Report() string {
	var b strings.Builder
	if r.OK {
		b.WriteString("OK\n")
	} else {
		b.WriteString("FAILED\n")
	}
	fmt.Fprintf(&b, "elapsed_ms=%d\n", r.Elapsed.Milliseconds())
	for _, line := range r.Errors {
		b.WriteString(line + "\n")
	}
	if !r.OK && len(r.Info) > 0 {
		b.WriteString("\ninfo:\n")
	}
	for _, line := range r.Info {
		b.WriteString(line + "\n")
	}
	return b.String()
}
