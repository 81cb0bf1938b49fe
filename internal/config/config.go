// Package config loads the YAML application configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no path is given on the command line or
// in the environment.
const DefaultConfigPath = "config.yaml"

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "TIFFSY_CONFIG"

// AppConfig is the full application configuration.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Cron     CronConfig     `yaml:"cron"`

	// Timezone is the business timezone all cutoff and scheduling
	// decisions are made in, e.g. "Asia/Kolkata".
	Timezone string `yaml:"timezone"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// AdminToken guards the admin routes; empty disables the check.
	AdminToken string `yaml:"admin-token"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// DSN is a PostgreSQL URL or a SQLite file path.
	DSN string `yaml:"dsn"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // Empty logs to stderr only.
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// CronConfig holds batch scheduler settings.
type CronConfig struct {
	// LunchSchedule and DinnerSchedule are cron expressions for the two
	// auto-order passes, evaluated in the business timezone.
	LunchSchedule  string `yaml:"lunch-schedule"`
	DinnerSchedule string `yaml:"dinner-schedule"`
	DryRun         bool   `yaml:"dry-run"`
}

// ResolveConfigPath applies the environment override and default when the
// given path is empty.
func ResolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultConfigPath
}

// Load reads and parses the config file, applying defaults for omitted
// fields.
func Load(path string) (*AppConfig, error) {
	raw, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil, fmt.Errorf("read config %s: %w", path, errRead)
	}
	cfg := defaultConfig()
	if errParse := yaml.Unmarshal(raw, cfg); errParse != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, errParse)
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("config %s: database.dsn is required", path)
	}
	return cfg, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Addr: ":8080"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Cron: CronConfig{
			LunchSchedule:  "0 6 * * *",
			DinnerSchedule: "0 15 * * *",
		},
		Timezone: "Asia/Kolkata",
	}
}
