// Package config handles application configuration loading. Values come from
// environment variables, optionally layered over a YAML file named by
// CONFIG_FILE. Environment variables always win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible session store)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage for version media
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Feed settings
	FeedTimezone     string
	FeedDefaultLimit int
	FeedMaxLimit     int
	AnonWeekLimit    int

	// Requests per minute per client for like toggles and logins.
	LikeRateLimit int
}

// fileConfig mirrors the optional YAML configuration file.
type fileConfig struct {
	Server struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`
	Postgres struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DB       string `yaml:"db"`
	} `yaml:"postgres"`
	Valkey struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Password string `yaml:"password"`
	} `yaml:"valkey"`
	S3 struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"s3"`
	Feed struct {
		Timezone      string `yaml:"timezone"`
		DefaultLimit  int    `yaml:"default_limit"`
		MaxLimit      int    `yaml:"max_limit"`
		AnonWeekLimit int    `yaml:"anon_week_limit"`
	} `yaml:"feed"`
	LikeRateLimit int `yaml:"like_rate_limit"`
}

// Load reads configuration from the optional CONFIG_FILE and from environment
// variables, applying development defaults where appropriate. Returns an
// error if the file is unreadable, a value is malformed, or critical values
// are missing in production mode.
func Load() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := &Config{
		Host: envOrDefault("APP_HOST", or(fc.Server.Host, "0.0.0.0")),
		Port: envOrDefault("APP_PORT", or(fc.Server.Port, "8080")),
		Env:  envOrDefault("APP_ENV", or(fc.Server.Env, "development")),

		DBHost:     envOrDefault("POSTGRES_HOST", or(fc.Postgres.Host, "localhost")),
		DBPort:     envOrDefault("POSTGRES_PORT", or(fc.Postgres.Port, "5432")),
		DBUser:     envOrDefault("POSTGRES_USER", or(fc.Postgres.User, "refto")),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", or(fc.Postgres.Password, "changeme")),
		DBName:     envOrDefault("POSTGRES_DB", or(fc.Postgres.DB, "refto")),

		ValkeyHost:     envOrDefault("VALKEY_HOST", or(fc.Valkey.Host, "localhost")),
		ValkeyPort:     envOrDefault("VALKEY_PORT", or(fc.Valkey.Port, "6379")),
		ValkeyPassword: envOrDefault("VALKEY_PASSWORD", fc.Valkey.Password),

		S3Endpoint:  envOrDefault("S3_ENDPOINT", fc.S3.Endpoint),
		S3Region:    envOrDefault("S3_REGION", or(fc.S3.Region, "auto")),
		S3AccessKey: envOrDefault("S3_ACCESS_KEY", fc.S3.AccessKey),
		S3SecretKey: envOrDefault("S3_SECRET_KEY", fc.S3.SecretKey),
		S3Bucket:    envOrDefault("S3_BUCKET", or(fc.S3.Bucket, "refto-media")),
		S3PublicURL: envOrDefault("S3_PUBLIC_URL", fc.S3.PublicURL),

		FeedTimezone: envOrDefault("FEED_TIMEZONE", or(fc.Feed.Timezone, "UTC")),
	}

	var err error
	if cfg.FeedDefaultLimit, err = envInt("FEED_DEFAULT_LIMIT", orInt(fc.Feed.DefaultLimit, 20)); err != nil {
		return nil, err
	}
	if cfg.FeedMaxLimit, err = envInt("FEED_MAX_LIMIT", orInt(fc.Feed.MaxLimit, 100)); err != nil {
		return nil, err
	}
	if cfg.AnonWeekLimit, err = envInt("ANON_WEEK_LIMIT", orInt(fc.Feed.AnonWeekLimit, 3)); err != nil {
		return nil, err
	}
	if cfg.LikeRateLimit, err = envInt("LIKE_RATE_LIMIT", orInt(fc.LikeRateLimit, 60)); err != nil {
		return nil, err
	}

	if _, err := time.LoadLocation(cfg.FeedTimezone); err != nil {
		return nil, fmt.Errorf("FEED_TIMEZONE %q: %w", cfg.FeedTimezone, err)
	}
	if cfg.FeedDefaultLimit < 1 || cfg.FeedMaxLimit < cfg.FeedDefaultLimit {
		return nil, fmt.Errorf("feed limits: default %d must be in [1, max %d]", cfg.FeedDefaultLimit, cfg.FeedMaxLimit)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location returns the timezone used for week and day boundaries.
// Load has already validated the name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.FeedTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StorageEnabled reports whether object storage credentials are present.
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt reads an integer environment variable.
func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
