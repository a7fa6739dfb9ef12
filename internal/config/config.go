// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config loads application configuration from environment
// variables, optionally seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"scapes/internal/scape"
	"scapes/internal/storage"
)

const defaultDBPassword = "changeme"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// HMAC secret for creator bearer tokens.
	JWTSecret string

	// Editor sessions and the title check
	NameCheckDebounce time.Duration
	NameCheckTimeout  time.Duration
	EditorSessionTTL  time.Duration // snapshot lifetime in Valkey
	EditorIdleTTL     time.Duration // in-memory lifetime
	ScapeCacheTTL     time.Duration

	// Validation
	TaglineMax               int
	CaptionMax               int
	UniqueTitleBlocksPublish bool

	// Requests per minute per client IP on the API.
	RateLimit int

	// S3-compatible media storage
	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBucket  string
	S3PrivateBucket string
	S3PublicURL     string
}

// Load reads configuration from the environment, applying development
// defaults where appropriate. A .env file is loaded first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := &Config{
		Host:     envOrDefault("APP_HOST", "0.0.0.0"),
		Port:     envOrDefault("APP_PORT", "8080"),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "scapes"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     envOrDefault("POSTGRES_DB", "scapes"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyDB:       envInt("VALKEY_DB", 0, &errs),

		JWTSecret: os.Getenv("JWT_SECRET"),

		NameCheckDebounce: envDuration("NAMECHECK_DEBOUNCE", 500*time.Millisecond, &errs),
		NameCheckTimeout:  envDuration("NAMECHECK_TIMEOUT", 5*time.Second, &errs),
		EditorSessionTTL:  envDuration("EDITOR_SESSION_TTL", 24*time.Hour, &errs),
		EditorIdleTTL:     envDuration("EDITOR_IDLE_TTL", 30*time.Minute, &errs),
		ScapeCacheTTL:     envDuration("SCAPE_CACHE_TTL", 5*time.Minute, &errs),

		TaglineMax:               envInt("TAGLINE_MAX", scape.DefaultTaglineMax, &errs),
		CaptionMax:               envInt("CAPTION_MAX", scape.DefaultCaptionMax, &errs),
		UniqueTitleBlocksPublish: envBool("UNIQUE_TITLE_BLOCKS_PUBLISH", false, &errs),

		RateLimit: envInt("RATE_LIMIT_PER_MINUTE", 300, &errs),

		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Region:        envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3PublicBucket:  os.Getenv("S3_BUCKET_PUBLIC"),
		S3PrivateBucket: os.Getenv("S3_BUCKET_PRIVATE"),
		S3PublicURL:     os.Getenv("S3_PUBLIC_URL"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if cfg.TaglineMax <= 0 || cfg.CaptionMax <= 0 {
		return nil, fmt.Errorf("TAGLINE_MAX and CAPTION_MAX must be positive")
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
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

// Limits returns the validation length limits.
func (c *Config) Limits() scape.Limits {
	return scape.Limits{TaglineMax: c.TaglineMax, CaptionMax: c.CaptionMax}
}

// Policy returns the validation policy switches.
func (c *Config) Policy() scape.Policy {
	return scape.Policy{UniqueTitleBlocksPublish: c.UniqueTitleBlocksPublish}
}

// Storage returns the media storage settings.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Endpoint:      c.S3Endpoint,
		Region:        c.S3Region,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		PublicBucket:  c.S3PublicBucket,
		PrivateBucket: c.S3PrivateBucket,
		PublicURL:     c.S3PublicURL,
	}
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a positive duration", key, v))
		return fallback
	}
	return d
}

func envBool(key string, fallback bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return fallback
	}
	return b
}
