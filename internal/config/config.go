// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	RedisAddr string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`

	Unsplash UnsplashConfig
	S3       S3Config

	// Retention is how long an untouched pool survives before the sweep
	// evicts it.
	Retention time.Duration `env:"CACHE_RETENTION" envDefault:"336h"`
	// SweepCron is the cron expression the worker registers the sweep on.
	SweepCron string `env:"SWEEP_CRON" envDefault:"0 3 * * *"`
}

// UnsplashConfig holds upstream API credentials.
type UnsplashConfig struct {
	AccessKey string `env:"UNSPLASH_ACCESS_KEY"`
}

// S3Config holds object store connection settings.
type S3Config struct {
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION"`
	Bucket    string `env:"S3_BUCKET" envDefault:"unsplash-cache"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	UseSSL    bool   `env:"S3_USE_SSL" envDefault:"false"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate reports the first missing backing-service setting. The API keeps
// serving a descriptive 500 instead of crash-looping when something is
// unset.
func (c Config) Validate() error {
	if c.S3.Endpoint == "" {
		return fmt.Errorf("object store not configured: S3_ENDPOINT is required")
	}
	if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
		return fmt.Errorf("object store not configured: S3_ACCESS_KEY and S3_SECRET_KEY are required")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("metadata store not configured: REDIS_ADDR is required")
	}
	if c.Unsplash.AccessKey == "" {
		return fmt.Errorf("unsplash API key not configured: UNSPLASH_ACCESS_KEY is required")
	}
	return nil
}
