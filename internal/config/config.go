// Package config loads CLI configuration from defaults, YAML, .env and LIBDESK_* variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

type APIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CACert   string        `yaml:"ca_cert"`
	Insecure bool          `yaml:"insecure"`
}

// SessionConfig holds the session monitor timings.
type SessionConfig struct {
	CheckInterval     time.Duration `yaml:"check_interval"`
	WarnThreshold     time.Duration `yaml:"warn_threshold"`
	InactivityTimeout time.Duration `yaml:"inactivity_timeout"`
}

type StoreConfig struct {
	Driver     string `yaml:"driver"`
	Profile    string `yaml:"profile"`
	Dir        string `yaml:"dir"`
	Passphrase string `yaml:"passphrase"`

	// TTL expires a redis-held session after its last write; zero keeps it.
	TTL time.Duration `yaml:"ttl"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	PostgresDSN string `yaml:"postgres_dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Dir returns the per-user configuration directory.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "libdesk")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "libdesk")
}

// DefaultPath is the config file read when no explicit path is given.
func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:3001",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			CheckInterval:     time.Minute,
			WarnThreshold:     5 * time.Minute,
			InactivityTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver:    DriverFile,
			Profile:   "default",
			Dir:       Dir(),
			RedisAddr: "localhost:6379",
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load builds the configuration. A missing file at path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if err := loadFromYAML(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	overrideString("LIBDESK_API_URL", &cfg.API.BaseURL)
	overrideString("LIBDESK_CA_CERT", &cfg.API.CACert)
	overrideString("LIBDESK_LOG_LEVEL", &cfg.Log.Level)
	overrideString("LIBDESK_STORE", &cfg.Store.Driver)
	overrideString("LIBDESK_PROFILE", &cfg.Store.Profile)
	overrideString("LIBDESK_STORE_DIR", &cfg.Store.Dir)
	overrideString("LIBDESK_PASSPHRASE", &cfg.Store.Passphrase)
	overrideString("LIBDESK_REDIS_ADDR", &cfg.Store.RedisAddr)
	overrideString("LIBDESK_REDIS_PASSWORD", &cfg.Store.RedisPassword)
	overrideString("LIBDESK_POSTGRES_DSN", &cfg.Store.PostgresDSN)

	if v := os.Getenv("LIBDESK_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse LIBDESK_REDIS_DB: %w", err)
		}
		cfg.Store.RedisDB = n
	}
	for key, target := range map[string]*time.Duration{
		"LIBDESK_API_TIMEOUT":        &cfg.API.Timeout,
		"LIBDESK_CHECK_INTERVAL":     &cfg.Session.CheckInterval,
		"LIBDESK_WARN_THRESHOLD":     &cfg.Session.WarnThreshold,
		"LIBDESK_INACTIVITY_TIMEOUT": &cfg.Session.InactivityTimeout,
		"LIBDESK_STORE_TTL":          &cfg.Store.TTL,
	} {
		if err := overrideDuration(key, target); err != nil {
			return err
		}
	}
	return nil
}

func overrideString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

// Validate rejects configurations the client cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: bad api base_url %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("config: api timeout must be positive")
	}
	if c.Session.CheckInterval <= 0 || c.Session.WarnThreshold <= 0 || c.Session.InactivityTimeout <= 0 {
		return errors.New("config: session durations must be positive")
	}
	if c.Store.TTL < 0 {
		return errors.New("config: store ttl must not be negative")
	}
	if c.Store.Profile == "" {
		return errors.New("config: empty store profile")
	}
	switch c.Store.Driver {
	case DriverFile:
		if c.Store.Dir == "" {
			return errors.New("config: file store needs a dir")
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("config: redis store needs redis_addr")
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("config: postgres store needs postgres_dsn")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
}
