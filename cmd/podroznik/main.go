package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/username/podroznik/internal/calendar"
	"github.com/username/podroznik/internal/config"
	"github.com/username/podroznik/internal/schedule"
	"github.com/username/podroznik/internal/upstream"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

// exitError carries a process exit code other than 1
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "podroznik",
		Short:         "e-podroznik.pl timetable client",
		Long:          "Query e-podroznik.pl for places, connections and stop timetables, and filter timetables by operating day",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				initLogger()
				return err
			}
			if cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger() // Fallback to console
				}
			} else {
				initLogger()
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: search ./config.yaml, ~/.podroznik, /etc/podroznik)")

	rootCmd.AddCommand(
		suggestCmd(),
		searchCmd(),
		timetableCmd(),
		appliesCmd(),
		dayCmd(),
		checkCmd(),
		monitorCmd(),
	)

	return rootCmd
}

func initLogger() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg != nil {
		if lvl, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}

func newCalendar() (calendar.Calendar, error) {
	cal, err := calendar.New(cfg.Calendar.ExtraHolidaysFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load holiday calendar: %w", err)
	}
	return cal, nil
}

func newEngine() (*schedule.Engine, error) {
	cal, err := newCalendar()
	if err != nil {
		return nil, err
	}
	return schedule.NewEngine(cal, logger), nil
}

func newUpstreamClient() (*upstream.Client, error) {
	target, err := upstream.ParseTarget(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("upstream.base_url: %w", err)
	}

	var limiter upstream.RateLimiter = upstream.NoopRateLimiter{}
	if interval := cfg.Upstream.MinInterval(); interval > 0 {
		limiter = upstream.NewFileRateLimiter(cfg.Upstream.RateLimitFile, interval, nil, nil, logger)
	}

	var store upstream.SessionStore = upstream.NewMemorySessionStore()
	if cfg.Session.File != "" {
		store = upstream.NewFileSessionStore(cfg.Session.File, logger)
	}

	return upstream.NewClient(upstream.Options{
		Target:               target,
		ConnectTimeout:       cfg.Upstream.ConnectTimeout,
		RequestTimeout:       cfg.Upstream.RequestTimeout,
		UserAgent:            cfg.Upstream.UserAgent,
		BrowserImpersonation: cfg.Upstream.BrowserImpersonation,
		Store:                store,
		Limiter:              limiter,
		OnInitFailure: func(err error) {
			logger.Error("Upstream session could not be initialized", zap.Error(err))
		},
	}, logger)
}
