// Package config loads portal configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iseage/signup/internal/logging"
)

// Server holds HTTP listener settings.
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Database holds PostgreSQL connection settings.
type Database struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Directory holds the LDAP directory settings. The bind DN and password
// for the administrative account live in GlobalSettings, not here, so
// they can be rotated from the admin dashboard without a redeploy.
type Directory struct {
	URL          string        `yaml:"url"`
	BaseDN       string        `yaml:"base_dn"`
	Domain       string        `yaml:"domain"`     // UPN suffix, e.g. iseage.org
	NT4Domain    string        `yaml:"nt4_domain"` // short domain for user binds
	UserOU       string        `yaml:"user_ou"`
	UserGroup    string        `yaml:"user_group"`
	TeamFormat   string        `yaml:"team_format"` // e.g. "CDC Team %d"
	RedOU        string        `yaml:"red_ou"`
	RedGroup     string        `yaml:"red_group"`
	RedPending   string        `yaml:"red_pending"`
	GreenOU      string        `yaml:"green_ou"`
	GreenGroup   string        `yaml:"green_group"`
	GreenPending string        `yaml:"green_pending"`
	AdminGroup   string        `yaml:"admin_group"` // members become staff/superuser
	CACertFile   string        `yaml:"ca_cert_file"`
	Timeout      time.Duration `yaml:"timeout"`
	SkipVerify   bool          `yaml:"skip_verify"`
}

// SMTP holds outbound mail settings.
type SMTP struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	FromAddr    string `yaml:"from_addr"`
	SupportAddr string `yaml:"support_addr"`
	PortalURL   string `yaml:"portal_url"`
}

// Auth holds session token settings.
type Auth struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Defaults are the static fallbacks for GlobalSettings fields whose
// stored value is unset.
type Defaults struct {
	NumberOfTeams int `yaml:"number_of_teams"`
	MaxTeamSize   int `yaml:"max_team_size"`
}

// Maintenance holds background job settings.
type Maintenance struct {
	ReconcileSchedule string `yaml:"reconcile_schedule"` // cron spec; empty disables the sweep
}

// Config is the root configuration document.
type Config struct {
	Server      Server         `yaml:"server"`
	Database    Database       `yaml:"database"`
	Directory   Directory      `yaml:"directory"`
	SMTP        SMTP           `yaml:"smtp"`
	Auth        Auth           `yaml:"auth"`
	Defaults    Defaults       `yaml:"defaults"`
	Maintenance Maintenance    `yaml:"maintenance"`
	Logging     logging.Config `yaml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: Database{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Directory: Directory{
			BaseDN:       "DC=iseage,DC=org",
			Domain:       "iseage.org",
			NT4Domain:    "ISEAGE",
			UserOU:       "CDCUsers",
			UserGroup:    "CDCUsers",
			TeamFormat:   "CDC Team %d",
			RedOU:        "RedTeam",
			RedGroup:     "Red",
			RedPending:   "RedPending",
			GreenOU:      "GreenTeam",
			GreenGroup:   "Green",
			GreenPending: "GreenPending",
			AdminGroup:   "Domain Admins",
			Timeout:      10 * time.Second,
		},
		SMTP: SMTP{
			Port:        25,
			FromAddr:    "cdc_support@iseage.org",
			SupportAddr: "cdc_support@iseage.org",
			PortalURL:   "https://signup.iseage.org",
		},
		Auth: Auth{
			TokenTTL: 12 * time.Hour,
		},
		Defaults: Defaults{
			NumberOfTeams: 40,
			MaxTeamSize:   8,
		},
		Logging: logging.Config{Level: "info", Format: "json"},
	}
}

// Load reads the config file named by SIGNUP_CONFIG, falling back to
// config/signup.yaml, falling back to defaults when neither exists.
func Load() (*Config, error) {
	path := os.Getenv("SIGNUP_CONFIG")
	if path == "" {
		path = "config/signup.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		applyEnv(cfg)
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the config file at path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Defaults.NumberOfTeams <= 0 {
		return nil, fmt.Errorf("defaults.number_of_teams must be positive")
	}
	if cfg.Defaults.MaxTeamSize <= 0 {
		return nil, fmt.Errorf("defaults.max_team_size must be positive")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SIGNUP_LISTEN_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SIGNUP_LISTEN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SIGNUP_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SIGNUP_LDAP_URL"); v != "" {
		cfg.Directory.URL = v
	}
	if v := os.Getenv("SIGNUP_SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SIGNUP_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("SIGNUP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
