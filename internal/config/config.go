package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Reminders ReminderConfig  `yaml:"reminders"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres or memory
	Path   string `yaml:"path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	OTPTTL    time.Duration `yaml:"otp_ttl"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type ReminderConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns the configuration used when no file is present: a local
// SQLite store under the user's home directory.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080},
		Store:  StoreConfig{Driver: "sqlite"},
		Tailscale: TailscaleConfig{
			Hostname: "ironpulse",
		},
		Reminders: ReminderConfig{Enabled: true, Interval: 30 * time.Second},
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.Store.Path = filepath.Join(home, ".ironpulse", "ironpulse.db")
		cfg.Tailscale.StateDir = filepath.Join(home, ".ironpulse", "tsnet")
	}
	return cfg
}

// Load reads config from a YAML file over Default(), then applies environment
// variable overrides. A missing file is an error unless allowMissing is set.
// Env vars use the prefix IRONPULSE_ and underscore-separated paths:
//
//	IRONPULSE_SERVER_HOST, IRONPULSE_SERVER_PORT, IRONPULSE_SERVER_STATIC_DIR,
//	IRONPULSE_STORE_DRIVER, IRONPULSE_STORE_PATH,
//	IRONPULSE_DB_HOST, IRONPULSE_DB_PORT, IRONPULSE_DB_NAME,
//	IRONPULSE_DB_USER, IRONPULSE_DB_PASSWORD, IRONPULSE_DB_SSLMODE,
//	IRONPULSE_AUTH_JWT_SECRET, IRONPULSE_AUTH_TOKEN_TTL, IRONPULSE_AUTH_OTP_TTL,
//	IRONPULSE_TAILSCALE_ENABLED,
//	IRONPULSE_REMINDERS_ENABLED, IRONPULSE_REMINDERS_INTERVAL
//
// A value that does not parse is an error.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case allowMissing && os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("config environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("IRONPULSE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if err := envInt("IRONPULSE_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if v := os.Getenv("IRONPULSE_SERVER_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv("IRONPULSE_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("IRONPULSE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("IRONPULSE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if err := envInt("IRONPULSE_DB_PORT", &cfg.Database.Port); err != nil {
		return err
	}
	if v := os.Getenv("IRONPULSE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("IRONPULSE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("IRONPULSE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("IRONPULSE_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("IRONPULSE_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if err := envDuration("IRONPULSE_AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL); err != nil {
		return err
	}
	if err := envDuration("IRONPULSE_AUTH_OTP_TTL", &cfg.Auth.OTPTTL); err != nil {
		return err
	}
	if err := envBool("IRONPULSE_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled); err != nil {
		return err
	}
	if err := envBool("IRONPULSE_REMINDERS_ENABLED", &cfg.Reminders.Enabled); err != nil {
		return err
	}
	return envDuration("IRONPULSE_REMINDERS_INTERVAL", &cfg.Reminders.Interval)
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a duration", key, v)
	}
	*dst = d
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case "memory":
	default:
		return fmt.Errorf("store.driver %q is not one of sqlite, postgres, memory", c.Store.Driver)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
