package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signup.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromPathOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  shutdown_timeout: 5s
directory:
  url: ldaps://dc.example.org:636
defaults:
  number_of_teams: 12
  max_team_size: 4
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Directory.URL != "ldaps://dc.example.org:636" {
		t.Fatalf("directory url = %q", cfg.Directory.URL)
	}
	if cfg.Defaults.NumberOfTeams != 12 || cfg.Defaults.MaxTeamSize != 4 {
		t.Fatalf("defaults = %+v", cfg.Defaults)
	}
	// Untouched sections keep their defaults.
	if cfg.Directory.BaseDN != "DC=iseage,DC=org" {
		t.Fatalf("base dn = %q", cfg.Directory.BaseDN)
	}
}

func TestLoadFromPathValidates(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 123456
`)
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected an error for an out-of-range port")
	}

	path = writeConfig(t, `
defaults:
  number_of_teams: 0
`)
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected an error for zero teams")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIGNUP_LISTEN_PORT", "7070")
	t.Setenv("SIGNUP_JWT_SECRET", "from-env")

	path := writeConfig(t, `
server:
  port: 9090
`)
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env to win, got port %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
}
