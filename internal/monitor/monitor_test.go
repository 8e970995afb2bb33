package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	derr "github.com/username/podroznik/internal/domain/errors"
	"github.com/username/podroznik/internal/upstream"
)

type fakeUpstream struct {
	mu sync.Mutex

	initErr     error
	suggestions map[string][]upstream.Suggestion
	searchHTML  string
	timetable   string
	calls       []string
	searched    upstream.SearchParams
}

func (f *fakeUpstream) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeUpstream) EnsureInitialized(context.Context) error {
	f.record("init")
	return f.initErr
}

func (f *fakeUpstream) Suggest(_ context.Context, query, kind, _ string) (*upstream.SuggestResponse, error) {
	f.record("suggest " + query + " " + kind)
	return &upstream.SuggestResponse{Status: "0", Suggestions: f.suggestions[query]}, nil
}

func (f *fakeUpstream) Search(_ context.Context, p upstream.SearchParams) (string, error) {
	f.record("search")
	f.searched = p
	return f.searchHTML, nil
}

func (f *fakeUpstream) GeneralTimetableStop(_ context.Context, stopID string) (string, error) {
	f.record("timetable " + stopID)
	return f.timetable, nil
}

func healthyUpstream() *fakeUpstream {
	return &fakeUpstream{
		suggestions: map[string][]upstream.Suggestion{
			"Warszawa": {
				{Name: "Warszawa Zachodnia", PlaceDataString: "c|2"},
				{Name: "Warszawa", PlaceDataString: "c|1"},
			},
			"Łódź": {{Name: "Łódź", PlaceDataString: "c|3"}},
		},
		searchHTML: "<html>wyniki</html>",
		timetable:  "<html>rozkład</html>",
	}
}

func TestChecker_Check_OK(t *testing.T) {
	fake := healthyUpstream()
	checker := NewChecker(fake, Probe{
		SuggestQuery: "Warszawa",
		SearchFrom:   "Warszawa",
		SearchTo:     "Łódź",
		StopID:       "103163",
	}, zap.NewNop())
	checker.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }

	res := checker.Check(context.Background())

	require.True(t, res.OK, "errors: %v", res.Errors)
	assert.Equal(t, []string{
		"suggest: ok (count=2)",
		"search: ok (bytes=19, date=2026-03-02)",
		"timetable: ok (stopId=103163, bytes=21)",
	}, res.Info)
	assert.Equal(t, "c|1", fake.searched.FromV, "exact name wins over the first suggestion")
	assert.Equal(t, "c|3", fake.searched.ToV)
	assert.True(t, fake.searched.OmitTime)
}

func TestChecker_Check_StopsAtFirstFailure(t *testing.T) {
	fake := healthyUpstream()
	fake.suggestions["Warszawa"] = nil

	checker := NewChecker(fake, Probe{SuggestQuery: "Warszawa", StopID: "103163"}, zap.NewNop())
	res := checker.Check(context.Background())

	assert.False(t, res.OK)
	assert.Equal(t, []string{`suggest: empty suggestions for "Warszawa"`}, res.Errors)
	assert.NotContains(t, fake.calls, "timetable 103163")
}

func TestChecker_Check_InitBlocked(t *testing.T) {
	fake := healthyUpstream()
	fake.initErr = fmt.Errorf("%w: denial-of-service blacklist", derr.ErrUpstreamBlocked)

	res := NewChecker(fake, Probe{SuggestQuery: "Warszawa", StopID: "1"}, zap.NewNop()).Check(context.Background())

	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], "init: upstream blocked the request"))
	assert.Equal(t, []string{"init"}, fake.calls)
}

func TestChecker_Check_EmptyTimetable(t *testing.T) {
	fake := healthyUpstream()
	fake.timetable = "  "

	res := NewChecker(fake, Probe{SuggestQuery: "Warszawa", StopID: "103163"}, zap.NewNop()).Check(context.Background())

	assert.False(t, res.OK)
	assert.Equal(t, []string{"timetable: empty timetable page for stopId=103163"}, res.Errors)
	assert.Equal(t, []string{"suggest: ok (count=2)"}, res.Info)
}

func TestResult_Report(t *testing.T) {
	ok := Result{OK: true, Elapsed: 1234 * time.Millisecond, Info: []string{"suggest: ok (count=3)"}}
	assert.Equal(t, "OK\nelapsed_ms=1234\nsuggest: ok (count=3)\n", ok.Report())

	failed := Result{
		Elapsed: 50 * time.Millisecond,
		Errors:  []string{"timetable: boom"},
		Info:    []string{"suggest: ok (count=3)"},
	}
	assert.Equal(t, "FAILED\nelapsed_ms=50\ntimetable: boom\n\ninfo:\nsuggest: ok (count=3)\n", failed.Report())
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "boom", errorText(errors.New("  boom ")))
	assert.Equal(t, "*errors.errorString", errorText(errors.New("")))
}

func TestDaemon_Run(t *testing.T) {
	fake := healthyUpstream()
	checker := NewChecker(fake, Probe{SuggestQuery: "Warszawa", StopID: "103163"}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		results []Result
	)
	d := NewDaemon(checker, 10*time.Millisecond, func(r Result) {
		mu.Lock()
		results = append(results, r)
		n := len(results)
		mu.Unlock()
		if n == 3 {
			cancel()
		}
	}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, len(results), 3)

	last, streak := d.Status()
	assert.True(t, last.OK)
	assert.Zero(t, streak)
}

func TestDaemon_FailStreak(t *testing.T) {
	fake := healthyUpstream()
	fake.timetable = ""
	d := NewDaemon(NewChecker(fake, Probe{SuggestQuery: "Warszawa", StopID: "1"}, zap.NewNop()), time.Minute, nil, zap.NewNop())

	d.runCheck(context.Background())
	d.runCheck(context.Background())
	_, streak := d.Status()
	assert.Equal(t, 2, streak)

	fake.timetable = "<html/>"
	d.runCheck(context.Background())
	last, streak := d.Status()
	assert.True(t, last.OK)
	assert.Zero(t, streak)
}

func TestDaemon_RejectsNonPositiveInterval(t *testing.T) {
	d := NewDaemon(NewChecker(healthyUpstream(), Probe{}, zap.NewNop()), 0, nil, zap.NewNop())
	assert.Error(t, d.Run(context.Background()))
}
