package monitor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Daemon runs the health check on a fixed interval
type Daemon struct {
	checker  *Checker
	interval time.Duration
	onResult func(Result)
	logger   *zap.Logger

	mu         sync.Mutex
	last       Result
	failStreak int
}

// NewDaemon creates a daemon; onResult, when set, receives every finished check
func NewDaemon(checker *Checker, interval time.Duration, onResult func(Result), logger *zap.Logger) *Daemon {
	return &Daemon{
		checker:  checker,
		interval: interval,
		onResult: onResult,
		logger:   logger,
	}
}

// Start runs checks until SIGINT/SIGTERM or until ctx is done
func (d *Daemon) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return d.Run(ctx)
}

// Run checks immediately and then on every tick until ctx is done
func (d *Daemon) Run(ctx context.Context) error {
	if d.interval <= 0 {
		return fmt.Errorf("monitor interval must be positive, got %s", d.interval)
	}

	d.logger.Info("Monitor started", zap.Duration("interval", d.interval))

	d.runCheck(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Monitor stopped")
			return nil
		case <-ticker.C:
			d.runCheck(ctx)
		}
	}
}

// runCheck runs one check and records its outcome
func (d *Daemon) runCheck(ctx context.Context) {
	res := d.checker.Check(ctx)

	d.mu.Lock()
	d.last = res
	if res.OK {
		if d.failStreak > 0 {
			d.logger.Info("Upstream recovered", zap.Int("failed_checks", d.failStreak))
		}
		d.failStreak = 0
	} else {
		d.failStreak++
	}
	d.mu.Unlock()

	if d.onResult != nil {
		d.onResult(res)
	}
}

// Status returns the last result and the number of consecutive failures
func (d *Daemon) Status() (Result, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.failStreak
}
