// Package config loads service configuration.
//
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults (see Default)
//  2. an optional YAML file
//  3. a .env file in the working directory (github.com/joho/godotenv)
//  4. process environment variables
//
// The dummy credentials in AuthConfig are test fixtures for load-testing
// tools, not secrets. Never treat them as a security boundary.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the root configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Profiling ProfilingConfig `yaml:"profiling"`
	Auth      AuthConfig      `yaml:"auth"`
	Session   SessionConfig   `yaml:"session"`
	Mock      MockConfig      `yaml:"mock"`
	Static    StaticConfig    `yaml:"static"`
	Shutdown  ShutdownConfig  `yaml:"shutdown"`
}

type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
	// Port is used by `sut serve`.
	Port string `yaml:"port"`
	// DevPort is used by `sut devserver`.
	DevPort string `yaml:"dev_port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate"`
}

type ProfilingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// AuthConfig holds the fixed login fixture.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// PasswordHash, when set, is a bcrypt hash checked instead of Password.
	PasswordHash string `yaml:"password_hash"`
	CookieName   string `yaml:"cookie_name"`
	CookieMaxAge int    `yaml:"cookie_max_age"`
	// RetainSessionOnLogout keeps the server-side record after logout,
	// only the client cookie is cleared.
	RetainSessionOnLogout bool `yaml:"retain_session_on_logout"`
	SecureTokens          bool `yaml:"secure_tokens"`
}

type SessionConfig struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisPrefix   string `yaml:"redis_prefix"`
	DatabaseURL   string `yaml:"database_url"`
}

type MockConfig struct {
	// ProtectAPI puts the generic /api/* mock behind the session gate.
	ProtectAPI bool `yaml:"protect_api"`
}

type StaticConfig struct {
	// Dir is served for unmatched non-API paths. Empty disables it.
	Dir string `yaml:"dir"`
}

type ShutdownConfig struct {
	Timeout             string `yaml:"timeout"`
	ReadinessDrainDelay string `yaml:"readiness_drain_delay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:    "sut-service",
			Version: "dev",
			Env:     "local",
			Port:    "3000",
			DevPort: "8788",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Endpoint:   "localhost:4318",
			SampleRate: 1.0,
		},
		Profiling: ProfilingConfig{
			Endpoint: "http://localhost:4040",
		},
		Auth: AuthConfig{
			Username:     "testuser",
			Password:     "password",
			CookieName:   "sessionId",
			CookieMaxAge: 3600,
		},
		Session: SessionConfig{
			Backend:     BackendMemory,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "sut:session:",
		},
		Shutdown: ShutdownConfig{
			Timeout:             "10s",
			ReadinessDrainDelay: "0s",
		},
	}
}

// Load builds the configuration. path may be empty; a missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// .env is optional; existing environment variables are not overwritten.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Service.Name, "SERVICE_NAME")
	setString(&cfg.Service.Version, "SERVICE_VERSION")
	setString(&cfg.Service.Env, "ENV")
	setString(&cfg.Service.Port, "PORT")
	setString(&cfg.Service.DevPort, "DEV_PORT")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")

	setBool(&cfg.Tracing.Enabled, "TRACING_ENABLED")
	setString(&cfg.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setFloat(&cfg.Tracing.SampleRate, "OTEL_SAMPLE_RATE")

	setBool(&cfg.Profiling.Enabled, "PROFILING_ENABLED")
	setString(&cfg.Profiling.Endpoint, "PYROSCOPE_ENDPOINT")

	setString(&cfg.Auth.Username, "AUTH_USERNAME")
	setString(&cfg.Auth.Password, "AUTH_PASSWORD")
	setString(&cfg.Auth.PasswordHash, "AUTH_PASSWORD_HASH")
	setString(&cfg.Auth.CookieName, "AUTH_COOKIE_NAME")
	setInt(&cfg.Auth.CookieMaxAge, "AUTH_COOKIE_MAX_AGE")
	setBool(&cfg.Auth.RetainSessionOnLogout, "AUTH_RETAIN_SESSION_ON_LOGOUT")
	setBool(&cfg.Auth.SecureTokens, "AUTH_SECURE_TOKENS")

	setString(&cfg.Session.Backend, "SESSION_BACKEND")
	setString(&cfg.Session.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Session.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.Session.RedisPrefix, "REDIS_PREFIX")
	setString(&cfg.Session.DatabaseURL, "DATABASE_URL")

	setBool(&cfg.Mock.ProtectAPI, "MOCK_PROTECT_API")
	setString(&cfg.Static.Dir, "STATIC_DIR")

	setString(&cfg.Shutdown.Timeout, "SHUTDOWN_TIMEOUT")
	setString(&cfg.Shutdown.ReadinessDrainDelay, "READINESS_DRAIN_DELAY")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	for name, port := range map[string]string{"port": c.Service.Port, "dev_port": c.Service.DevPort} {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("service.%s %q is not a valid port", name, port)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate %v must be within [0,1]", c.Tracing.SampleRate)
	}

	if c.Auth.Username == "" {
		return errors.New("auth.username must not be empty")
	}
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return errors.New("auth.password or auth.password_hash must be set")
	}
	if c.Auth.CookieName == "" {
		return errors.New("auth.cookie_name must not be empty")
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("session.redis_addr is required for the redis backend")
		}
	case BackendPostgres:
		if c.Session.DatabaseURL == "" {
			return errors.New("session.database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("session.backend %q is not supported", c.Session.Backend)
	}

	if _, err := time.ParseDuration(c.Shutdown.Timeout); err != nil {
		return fmt.Errorf("shutdown.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Shutdown.ReadinessDrainDelay); err != nil {
		return fmt.Errorf("shutdown.readiness_drain_delay: %w", err)
	}
	return nil
}

// GetShutdownTimeoutDuration returns the HTTP shutdown timeout.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Shutdown.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetReadinessDrainDelayDuration returns how long /ready reports 503
// before the listener stops.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.Shutdown.ReadinessDrainDelay)
	if err != nil {
		return 0
	}
	return d
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
