package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.DayStart != "09:00" || cfg.StaleCutoffMinutes != 10 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.DayStartOffset() != 9*time.Hour {
		t.Errorf("day start offset %v", cfg.DayStartOffset())
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dayplan.yaml")
	data := []byte("listen: 0.0.0.0:9090\nday_start: \"07:30\"\nstale_cutoff_minutes: 5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9090" {
		t.Errorf("listen %q", cfg.Listen)
	}
	if cfg.DayStartOffset() != 7*time.Hour+30*time.Minute {
		t.Errorf("day start offset %v", cfg.DayStartOffset())
	}
	if cfg.StaleCutoffMinutes != 5 {
		t.Errorf("cutoff %d", cfg.StaleCutoffMinutes)
	}
	// Unset fields keep their defaults
	if cfg.StatePath != "state" || cfg.RefreshCron != "* * * * *" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DAYPLAN_LISTEN", "127.0.0.1:7000")
	t.Setenv("STATE_PATH", "/tmp/dayplan-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != "127.0.0.1:7000" || cfg.StatePath != "/tmp/dayplan-test" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dayplan.yaml")
	if err := os.WriteFile(path, []byte("day_start: \"25:00\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected rejection of invalid day_start")
	}

	if err := os.WriteFile(path, []byte("stale_cutoff_minutes: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected rejection of zero cutoff")
	}
}
