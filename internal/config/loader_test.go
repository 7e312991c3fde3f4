package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OFFICEHOURS_CALENDAR_BASE_URL", "https://calendar.internal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:officehours.db" {
		t.Errorf("unexpected default DSN %q", cfg.SQLiteDSN)
	}
	if cfg.CalendarTimeout != 5*time.Second {
		t.Errorf("unexpected default calendar timeout %v", cfg.CalendarTimeout)
	}
	if cfg.SyncInterval != 15*time.Minute {
		t.Errorf("unexpected default sync interval %v", cfg.SyncInterval)
	}
	if cfg.SyncHorizonDays != 60 || cfg.SyncMaxParallel != 4 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OFFICEHOURS_CALENDAR_BASE_URL", "https://calendar.internal")
	t.Setenv("OFFICEHOURS_HTTP_PORT", "9090")
	t.Setenv("OFFICEHOURS_SQLITE_DSN", "file:test.db")
	t.Setenv("OFFICEHOURS_SYNC_INTERVAL", "5m")
	t.Setenv("OFFICEHOURS_SYNC_MAX_PARALLEL", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 9090 || cfg.SQLiteDSN != "file:test.db" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.SyncInterval != 5*time.Minute || cfg.SyncMaxParallel != 8 {
		t.Errorf("sync overrides not applied: %+v", cfg)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("OFFICEHOURS_CALENDAR_BASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error for the missing base URL")
	}
	if !strings.Contains(err.Error(), "OFFICEHOURS_CALENDAR_BASE_URL") {
		t.Fatalf("expected the variable named in the error, got %v", err)
	}
}

func TestLoad_InvalidValuesAccumulate(t *testing.T) {
	t.Setenv("OFFICEHOURS_CALENDAR_BASE_URL", "https://calendar.internal")
	t.Setenv("OFFICEHOURS_HTTP_PORT", "not-a-port")
	t.Setenv("OFFICEHOURS_SYNC_INTERVAL", "-5m")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error for invalid values")
	}
	for _, name := range []string{"OFFICEHOURS_HTTP_PORT", "OFFICEHOURS_SYNC_INTERVAL"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("expected %s named in the error, got %v", name, err)
		}
	}
}
