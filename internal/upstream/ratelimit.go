package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"go.uber.org/zap"
)

// RateLimiter paces outbound upstream calls
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Clock abstracts time for the rate limiter
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Locker takes an exclusive advisory lock on an open file
type Locker interface {
	Lock(f *os.File) error
	Unlock(f *os.File) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SystemClock is the wall clock
var SystemClock Clock = systemClock{}

// NoopRateLimiter never waits
type NoopRateLimiter struct{}

func (NoopRateLimiter) Wait(context.Context) error { return nil }

// FileRateLimiter enforces a minimum interval between calls across all processes on the host.
// The time of the last call is kept in a shared JSON file ({"last": <unix seconds>}) guarded by an
// exclusive advisory lock, so concurrent processes queue behind each other.
type FileRateLimiter struct {
	path     string
	interval time.Duration
	clock    Clock
	locker   Locker
	logger   *zap.Logger
}

type rateLimitState struct {
	Last float64 `json:"last"`
}

// NewFileRateLimiter creates a limiter; an interval <= 0 disables pacing
func NewFileRateLimiter(path string, interval time.Duration, clock Clock, locker Locker, logger *zap.Logger) *FileRateLimiter {
	if clock == nil {
		clock = SystemClock
	}
	if locker == nil {
		locker = FlockLocker{}
	}
	return &FileRateLimiter{
		path:     path,
		interval: interval,
		clock:    clock,
		locker:   locker,
		logger:   logger,
	}
}

// Wait sleeps until the interval since the last recorded call has passed, then records the current call
func (rl *FileRateLimiter) Wait(ctx context.Context) error {
	if rl.interval <= 0 {
		return nil
	}

	f, err := os.OpenFile(rl.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open rate limit file: %w", err)
	}
	defer f.Close()

	if err := rl.locker.Lock(f); err != nil {
		return fmt.Errorf("failed to lock rate limit file: %w", err)
	}
	defer func() {
		if err := rl.locker.Unlock(f); err != nil {
			rl.logger.Warn("Failed to unlock rate limit file", zap.Error(err))
		}
	}()

	var state rateLimitState
	if raw, err := io.ReadAll(f); err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &state); err != nil {
			rl.logger.Debug("Ignoring unreadable rate limit state", zap.Error(err))
			state = rateLimitState{}
		}
	}

	if state.Last > 0 {
		next := fromUnixSeconds(state.Last).Add(rl.interval)
		if wait := next.Sub(rl.clock.Now()); wait > 0 {
			rl.logger.Debug("Pacing upstream call", zap.Duration("wait", wait))
			if err := rl.clock.Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	state.Last = toUnixSeconds(rl.clock.Now())
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal rate limit state: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate rate limit file: %w", err)
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return fmt.Errorf("failed to write rate limit file: %w", err)
	}
	return nil
}

func toUnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(frac*1e9))
}
