package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents application configuration
type Config struct {
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Session  SessionConfig  `mapstructure:"session"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Log      LogConfig      `mapstructure:"log"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
}

// UpstreamConfig represents e-podroznik.pl client configuration
type UpstreamConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	MinIntervalMS        int           `mapstructure:"min_interval_ms"` // 0 disables pacing
	RateLimitFile        string        `mapstructure:"rate_limit_file"`
	BrowserImpersonation bool          `mapstructure:"browser_impersonation"`
	UserAgent            string        `mapstructure:"user_agent"`
}

// SessionConfig represents session persistence configuration
type SessionConfig struct {
	File string `mapstructure:"file"`
}

// CalendarConfig represents holiday calendar configuration
type CalendarConfig struct {
	ExtraHolidaysFile string `mapstructure:"extra_holidays_file"` // "YYYY-MM-DD name" per line
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// MonitorConfig represents the health check configuration
type MonitorConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StopID       string        `mapstructure:"stop_id"`
	SuggestQuery string        `mapstructure:"suggest_query"`
	SearchFrom   string        `mapstructure:"search_from"` // empty skips the search probe
	SearchTo     string        `mapstructure:"search_to"`
}

var stopIDRe = regexp.MustCompile(`^\d+$`)

// MinInterval returns the pause enforced between upstream calls
func (c *UpstreamConfig) MinInterval() time.Duration {
	if c.MinIntervalMS <= 0 {
		return 0
	}
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

func millis(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func setDefaults(v *viper.Viper) {
	tmp := os.TempDir()

	v.SetDefault("upstream.base_url", "https://www.e-podroznik.pl")
	v.SetDefault("upstream.connect_timeout", "12s")
	v.SetDefault("upstream.request_timeout", "35s")
	v.SetDefault("upstream.min_interval_ms", 0)
	v.SetDefault("upstream.rate_limit_file", filepath.Join(tmp, "podroznik-epodroznik-rate-limit.json"))
	v.SetDefault("upstream.browser_impersonation", true)
	v.SetDefault("upstream.user_agent", "")

	v.SetDefault("session.file", filepath.Join(tmp, "podroznik-session.json"))
	v.SetDefault("calendar.extra_holidays_file", "")

	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("monitor.interval", "15m")
	v.SetDefault("monitor.stop_id", "103163")
	v.SetDefault("monitor.suggest_query", "Warszawa")
	v.SetDefault("monitor.search_from", "Warszawa")
	v.SetDefault("monitor.search_to", "Łódź")
}

// Load loads configuration from file. Without an explicit path a missing file is fine
// and defaults apply. A .env file in the working directory is read first.
func Load(configPath string) (*Config, error) {
	// Optional; variables already set in the environment win
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.podroznik")
		v.AddConfigPath("/etc/podroznik")
	}

	v.SetEnvPrefix("PODROZNIK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("upstream.min_interval_ms", "PODROZNIK_UPSTREAM_MIN_INTERVAL_MS", "EPODROZNIK_MIN_INTERVAL_MS"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Anything that is not a positive number of milliseconds turns pacing off
	v.Set("upstream.min_interval_ms", millis(v.GetString("upstream.min_interval_ms")))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.ExpandEnvVars()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.ConnectTimeout < 0 {
		return fmt.Errorf("upstream.connect_timeout must not be negative")
	}
	if c.Upstream.RequestTimeout < 0 {
		return fmt.Errorf("upstream.request_timeout must not be negative")
	}
	if c.Upstream.MinIntervalMS > 0 && c.Upstream.RateLimitFile == "" {
		return fmt.Errorf("upstream.rate_limit_file is required when min_interval_ms is set")
	}

	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	if !stopIDRe.MatchString(c.Monitor.StopID) {
		return fmt.Errorf("monitor.stop_id must be numeric, got '%s'", c.Monitor.StopID)
	}
	if strings.TrimSpace(c.Monitor.SuggestQuery) == "" {
		return fmt.Errorf("monitor.suggest_query is required")
	}
	if (c.Monitor.SearchFrom == "") != (c.Monitor.SearchTo == "") {
		return fmt.Errorf("monitor.search_from and monitor.search_to must be set together")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got '%s'", c.Log.Level)
	}

	return nil
}

// ExpandEnvVars expands environment variables in path settings
func (c *Config) ExpandEnvVars() {
	c.Upstream.RateLimitFile = os.ExpandEnv(c.Upstream.RateLimitFile)
	c.Session.File = os.ExpandEnv(c.Session.File)
	c.Calendar.ExtraHolidaysFile = os.ExpandEnv(c.Calendar.ExtraHolidaysFile)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
