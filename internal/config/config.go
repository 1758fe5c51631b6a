package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vthunder/dayplan/internal/schedule"
)

// Config is the top-level application configuration
type Config struct {
	// Listen is the HTTP listen address for the API
	Listen string `yaml:"listen"`

	// StatePath is the directory holding the SQLite database
	StatePath string `yaml:"state_path"`

	// DayStart is the "HH:MM" time of day where sequential placement of
	// windowless templates begins
	DayStart string `yaml:"day_start"`

	// StaleCutoffMinutes is how long an alert interaction may stay
	// unresolved before the sweep closes it as unanswered
	StaleCutoffMinutes int `yaml:"stale_cutoff_minutes"`

	// RefreshCron is a cron-style schedule for the background today-refresh
	// (materialization top-up plus stale sweep)
	RefreshCron string `yaml:"refresh"`
}

// DefaultConfig returns an in-memory default configuration
func DefaultConfig() *Config {
	return &Config{
		Listen:             "127.0.0.1:8080",
		StatePath:          "state",
		DayStart:           "09:00",
		StaleCutoffMinutes: 10,
		RefreshCron:        "* * * * *",
	}
}

// Load reads the YAML config at path, falling back to defaults when the file
// does not exist. Environment variables DAYPLAN_LISTEN and STATE_PATH
// override the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: defaults are fine
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if v := os.Getenv("DAYPLAN_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("STATE_PATH"); v != "" {
		cfg.StatePath = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := schedule.ParseClock(c.DayStart); err != nil {
		return fmt.Errorf("invalid day_start: %w", err)
	}
	if c.StaleCutoffMinutes <= 0 {
		return fmt.Errorf("stale_cutoff_minutes must be positive, got %d", c.StaleCutoffMinutes)
	}
	return nil
}

// DayStartOffset returns DayStart as an offset from midnight
func (c *Config) DayStartOffset() time.Duration {
	offset, err := schedule.ParseClock(c.DayStart)
	if err != nil {
		return schedule.DefaultDayStart
	}
	return offset
}
