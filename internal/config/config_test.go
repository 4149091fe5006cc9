package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  host: "0.0.0.0"
  port: 9090
store:
  driver: "postgres"
database:
  host: "localhost"
  port: 5432
  name: "ironpulse"
  user: "ironpulse"
  password: "secret"
  sslmode: "disable"
auth:
  jwt_secret: "test-secret"
  token_ttl: 24h
  otp_ttl: 2m
reminders:
  enabled: false
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that a well-formed YAML config loads with all fields populated.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("store.driver = %q, want %q", cfg.Store.Driver, "postgres")
	}
	if cfg.Database.Name != "ironpulse" {
		t.Errorf("database.name = %q, want %q", cfg.Database.Name, "ironpulse")
	}
	if cfg.Auth.JWTSecret != "test-secret" {
		t.Errorf("auth.jwt_secret = %q, want %q", cfg.Auth.JWTSecret, "test-secret")
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("auth.token_ttl = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.OTPTTL != 2*time.Minute {
		t.Errorf("auth.otp_ttl = %v, want 2m", cfg.Auth.OTPTTL)
	}
	if cfg.Reminders.Enabled {
		t.Error("reminders.enabled = true, want false")
	}
	// Defaults survive for keys the file omits.
	if cfg.Reminders.Interval != 30*time.Second {
		t.Errorf("reminders.interval = %v, want 30s", cfg.Reminders.Interval)
	}
}

// TestEnvOverride verifies that IRONPULSE_ env vars take precedence over YAML values.
func TestEnvOverride(t *testing.T) {
	t.Setenv("IRONPULSE_DB_HOST", "override-host")
	t.Setenv("IRONPULSE_DB_PORT", "9999")
	t.Setenv("IRONPULSE_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("IRONPULSE_TAILSCALE_ENABLED", "true")

	cfg, err := Load(writeTemp(t, validYAML), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "override-host" {
		t.Errorf("database.host = %q, want %q", cfg.Database.Host, "override-host")
	}
	if cfg.Database.Port != 9999 {
		t.Errorf("database.port = %d, want 9999", cfg.Database.Port)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("auth.jwt_secret = %q, want %q", cfg.Auth.JWTSecret, "env-secret")
	}
	if !cfg.Tailscale.Enabled {
		t.Error("tailscale.enabled = false, want true")
	}
	if cfg.Database.Name != "ironpulse" {
		t.Errorf("database.name = %q, want %q (from YAML)", cfg.Database.Name, "ironpulse")
	}
}

// TestEnvOverrideDurations verifies TTL and reminder settings can be set from
// the environment.
func TestEnvOverrideDurations(t *testing.T) {
	t.Setenv("IRONPULSE_AUTH_TOKEN_TTL", "2h")
	t.Setenv("IRONPULSE_AUTH_OTP_TTL", "90s")
	t.Setenv("IRONPULSE_REMINDERS_ENABLED", "true")
	t.Setenv("IRONPULSE_REMINDERS_INTERVAL", "10s")

	cfg, err := Load(writeTemp(t, validYAML), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("auth.token_ttl = %v, want 2h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.OTPTTL != 90*time.Second {
		t.Errorf("auth.otp_ttl = %v, want 90s", cfg.Auth.OTPTTL)
	}
	if !cfg.Reminders.Enabled || cfg.Reminders.Interval != 10*time.Second {
		t.Errorf("reminders = %+v, want enabled every 10s", cfg.Reminders)
	}
}

// TestEnvOverrideInvalid verifies malformed env values are reported instead
// of ignored.
func TestEnvOverrideInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"IRONPULSE_SERVER_PORT", "eighty"},
		{"IRONPULSE_DB_PORT", "5432x"},
		{"IRONPULSE_TAILSCALE_ENABLED", "yes please"},
		{"IRONPULSE_REMINDERS_ENABLED", "sometimes"},
		{"IRONPULSE_AUTH_TOKEN_TTL", "a day"},
		{"IRONPULSE_REMINDERS_INTERVAL", "30"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(writeTemp(t, validYAML), false)
			if err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Errorf("err = %v, want error naming %s", err, tt.key)
			}
		})
	}
}

// TestLoadMissingFile verifies a missing file is an error only when required.
func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Load(path, false); err == nil {
		t.Error("expected error for missing config file")
	}

	t.Setenv("IRONPULSE_STORE_PATH", filepath.Join(t.TempDir(), "ironpulse.db"))
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("store.driver = %q, want sqlite", cfg.Store.Driver)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(writeTemp(t, "server: [unclosed"), false); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

// TestValidation verifies that required fields are enforced per store driver.
func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "store:\n  driver: redis\n"},
		{"postgres without host", "store:\n  driver: postgres\ndatabase:\n  port: 5432\n  name: x\n  user: x\n"},
		{"postgres without user", "store:\n  driver: postgres\ndatabase:\n  host: h\n  port: 5432\n  name: x\n"},
		{"sqlite without path", "store:\n  driver: sqlite\n  path: \"\"\n"},
		{"zero port", "server:\n  port: 0\nstore:\n  driver: memory\n"},
		{"tailscale without hostname", "store:\n  driver: memory\ntailscale:\n  enabled: true\n  hostname: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeTemp(t, tt.yaml), false); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "ironpulse", User: "u", Password: "p"}
	want := "postgres://u:p@db:5432/ironpulse?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
