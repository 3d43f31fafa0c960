// Package config loads service configuration from the environment, with an
// optional YAML policy file for the tunable attendance rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/goccy/go-yaml"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is required")
	ErrInvalidDebounce    = errors.New("debounce window must be positive")
	ErrInvalidCron        = errors.New("reconcile cron schedule is empty")
)

// Defaults. The debounce window and cron schedule are policy, not protocol.
const (
	DefaultPort           = "5050"
	DefaultSchema         = "app_attendance"
	DefaultDebounceWindow = 10 * time.Second
	DefaultTimeZone       = "Asia/Kolkata"
	DefaultReconcileCron  = "30 23 * * *"
	DefaultPingRate       = 1.0
	DefaultPingBurst      = 5
)

// Policy holds the tunable attendance rules.
type Policy struct {
	DebounceWindow time.Duration
	TimeZone       string
	ReconcileCron  string
	AllowedOrigins []string
	// PingRate is the sustained per-worker location requests per second.
	PingRate       float64
	PingBurst      int

	loc *time.Location
}

// Location returns the business time zone that calendar dates are computed in.
func (p Policy) Location() *time.Location {
	if p.loc != nil {
		return p.loc
	}
	return time.UTC
}

// Config is the full service configuration.
type Config struct {
	DatabaseURL string
	// Schema is the postgres schema the tables live in.
	Schema      string
	Port        string
	// SQLLogLevel is passed to the gorm logger: silent, error, warn or info.
	SQLLogLevel string
	Policy      Policy
}

// DefaultPolicy returns the policy used when nothing overrides it.
func DefaultPolicy() Policy {
	p := Policy{
		DebounceWindow: DefaultDebounceWindow,
		TimeZone:       DefaultTimeZone,
		ReconcileCron:  DefaultReconcileCron,
		PingRate:       DefaultPingRate,
		PingBurst:      DefaultPingBurst,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	if loc, err := time.LoadLocation(p.TimeZone); err == nil {
		p.loc = loc
	}
	return p
}

// LoadFromEnv loads configuration from environment variables.
//
// Environment variables:
//   - DATABASE_URL: postgres DSN (required)
//   - DB_SCHEMA: postgres schema for all tables (default: app_attendance)
//   - PORT: listen port (default: 5050)
//   - SQL_LOG_LEVEL: gorm log level (default: warn)
//   - ATTENDANCE_POLICY_FILE: optional YAML file overriding the policy
//   - ATTENDANCE_TIMEZONE: business time zone (default: Asia/Kolkata)
//   - RECONCILE_CRON: daily batch schedule (default: "30 23 * * *")
//   - DEBOUNCE_SECONDS: location ping debounce window (default: 10)
//   - CORS_ALLOWED_ORIGINS: comma separated origin allow-list
func LoadFromEnv() (Config, error) {
	cfg := Config{
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Schema:      strings.TrimSpace(os.Getenv("DB_SCHEMA")),
		Port:        strings.TrimSpace(os.Getenv("PORT")),
		SQLLogLevel: strings.ToLower(strings.TrimSpace(os.Getenv("SQL_LOG_LEVEL"))),
		Policy:      DefaultPolicy(),
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema
	}
	if cfg.SQLLogLevel == "" {
		cfg.SQLLogLevel = "warn"
	}

	if path := strings.TrimSpace(os.Getenv("ATTENDANCE_POLICY_FILE")); path != "" {
		p, err := LoadPolicyFile(path, cfg.Policy)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = p
	}

	if tz := strings.TrimSpace(os.Getenv("ATTENDANCE_TIMEZONE")); tz != "" {
		cfg.Policy.TimeZone = tz
	}
	if spec := strings.TrimSpace(os.Getenv("RECONCILE_CRON")); spec != "" {
		cfg.Policy.ReconcileCron = spec
	}
	if s := strings.TrimSpace(os.Getenv("DEBOUNCE_SECONDS")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEBOUNCE_SECONDS %q: %w", s, err)
		}
		cfg.Policy.DebounceWindow = time.Duration(n) * time.Second
	}
	if origins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); origins != "" {
		cfg.Policy.AllowedOrigins = splitList(origins)
	}

	if err := cfg.Policy.resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration can start the server.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return c.Policy.Validate()
}

// Validate checks the policy values.
func (p Policy) Validate() error {
	if p.DebounceWindow <= 0 {
		return ErrInvalidDebounce
	}
	if strings.TrimSpace(p.ReconcileCron) == "" {
		return ErrInvalidCron
	}
	return nil
}

func (p *Policy) resolve() error {
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", p.TimeZone, err)
	}
	p.loc = loc
	return nil
}

type policyFile struct {
	DebounceWindow string   `yaml:"debounce_window"`
	TimeZone       string   `yaml:"time_zone"`
	ReconcileCron  string   `yaml:"reconcile_cron"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	PingRate       float64  `yaml:"ping_rate"`
	PingBurst      int      `yaml:"ping_burst"`
}

// LoadPolicyFile reads a YAML policy file and overlays it on base. Keys that
// are absent keep the base value.
func LoadPolicyFile(path string, base Policy) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(data, base)
}

// ParsePolicy overlays YAML policy data on base.
func ParsePolicy(data []byte, base Policy) (Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy file: %w", err)
	}

	p := base
	if f.DebounceWindow != "" {
		d, err := time.ParseDuration(f.DebounceWindow)
		if err != nil {
			return Policy{}, fmt.Errorf("invalid debounce_window %q: %w", f.DebounceWindow, err)
		}
		p.DebounceWindow = d
	}
	if f.TimeZone != "" {
		p.TimeZone = f.TimeZone
	}
	if f.ReconcileCron != "" {
		p.ReconcileCron = f.ReconcileCron
	}
	if len(f.AllowedOrigins) > 0 {
		p.AllowedOrigins = f.AllowedOrigins
	}
	if f.PingRate > 0 {
		p.PingRate = f.PingRate
	}
	if f.PingBurst > 0 {
		p.PingBurst = f.PingBurst
	}

	if err := p.resolve(); err != nil {
		return Policy{}, err
	}
	return p, p.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
