package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures configuration values for the time tracking service.
// Values come from an optional YAML file named by TIMECLOCK_CONFIG_FILE,
// with TIMECLOCK_* environment variables taking precedence.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	SessionTTL    time.Duration
	Timezone      string
	AdminEmail    string
	AdminPassword string
}

// Location resolves the configured reporting timezone.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type fileConfig struct {
	HTTPPort      int    `yaml:"http_port"`
	SQLiteDSN     string `yaml:"sqlite_dsn"`
	SessionTTL    string `yaml:"session_ttl"`
	Timezone      string `yaml:"timezone"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// Load parses configuration from the optional YAML file and the current
// process environment.
//
// The loader applies sensible defaults for optional fields while validating
// provided values and reporting every offending entry in one pass.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:timeclock.db?_foreign_keys=on",
		SessionTTL: 24 * time.Hour,
		Timezone:   "UTC",
	}

	invalid := make([]string, 0, 2)

	if path := strings.TrimSpace(os.Getenv("TIMECLOCK_CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if portValue := strings.TrimSpace(os.Getenv("TIMECLOCK_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "TIMECLOCK_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("TIMECLOCK_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("TIMECLOCK_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "TIMECLOCK_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if zone := strings.TrimSpace(os.Getenv("TIMECLOCK_TIMEZONE")); zone != "" {
		cfg.Timezone = zone
	}

	if email := strings.TrimSpace(os.Getenv("TIMECLOCK_ADMIN_EMAIL")); email != "" {
		cfg.AdminEmail = email
	}
	if password := os.Getenv("TIMECLOCK_ADMIN_PASSWORD"); password != "" {
		cfg.AdminPassword = password
	}

	if _, err := cfg.Location(); err != nil {
		invalid = append(invalid, "TIMECLOCK_TIMEZONE")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read configuration file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse configuration file: %w", err)
	}

	if file.HTTPPort > 0 {
		cfg.HTTPPort = file.HTTPPort
	}
	if dsn := strings.TrimSpace(file.SQLiteDSN); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if ttlValue := strings.TrimSpace(file.SessionTTL); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("invalid session_ttl in configuration file: %q", file.SessionTTL)
		}
		cfg.SessionTTL = ttl
	}
	if zone := strings.TrimSpace(file.Timezone); zone != "" {
		cfg.Timezone = zone
	}
	if email := strings.TrimSpace(file.AdminEmail); email != "" {
		cfg.AdminEmail = email
	}
	if file.AdminPassword != "" {
		cfg.AdminPassword = file.AdminPassword
	}

	return nil
}
