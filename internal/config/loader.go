package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	CalendarBaseURL string
	CalendarTimeout time.Duration
	SyncInterval    time.Duration
	SyncHorizonDays int
	SyncMaxParallel int
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is folded into the environment first;
// real environment variables take precedence. The loader applies defaults for
// optional fields while accumulating every missing or invalid entry into a
// single error.
func Load() (Config, error) {
	// Absence of a .env file is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:officehours.db",
		CalendarTimeout: 5 * time.Second,
		SyncInterval:    15 * time.Minute,
		SyncHorizonDays: 60,
		SyncMaxParallel: 4,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("OFFICEHOURS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "OFFICEHOURS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("OFFICEHOURS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if base := strings.TrimSpace(os.Getenv("OFFICEHOURS_CALENDAR_BASE_URL")); base == "" {
		missing = append(missing, "OFFICEHOURS_CALENDAR_BASE_URL")
	} else {
		cfg.CalendarBaseURL = base
	}

	if value := strings.TrimSpace(os.Getenv("OFFICEHOURS_CALENDAR_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "OFFICEHOURS_CALENDAR_TIMEOUT")
		} else {
			cfg.CalendarTimeout = timeout
		}
	}

	if value := strings.TrimSpace(os.Getenv("OFFICEHOURS_SYNC_INTERVAL")); value != "" {
		interval, err := time.ParseDuration(value)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "OFFICEHOURS_SYNC_INTERVAL")
		} else {
			cfg.SyncInterval = interval
		}
	}

	for _, field := range []struct {
		name   string
		target *int
	}{
		{"OFFICEHOURS_SYNC_HORIZON_DAYS", &cfg.SyncHorizonDays},
		{"OFFICEHOURS_SYNC_MAX_PARALLEL", &cfg.SyncMaxParallel},
	} {
		if value := strings.TrimSpace(os.Getenv(field.name)); value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil || parsed <= 0 {
				invalid = append(invalid, field.name)
			} else {
				*field.target = parsed
			}
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
