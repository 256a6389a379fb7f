// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// R2Config holds Cloudflare R2 credentials for resume downloads.
type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Config holds all jobrank settings.
type Config struct {
	Env            string
	LogLevel       string
	DBURL          string
	RabbitMQURL    string
	R2             R2Config
	WorkerCount    int
	HTTPPort       int
	MetricsPort    int
	MaxUploadMB    int
	SkipUnreadable bool
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:         os.Getenv("APP_ENV"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		DBURL:       os.Getenv("DB_URL"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		R2: R2Config{
			AccountID: os.Getenv("R2_ACCCOUNT_ID"),
			Bucket:    os.Getenv("R2_BUCKET"),
			AccessKey: os.Getenv("R2_ACCESS_KEY"),
			SecretKey: os.Getenv("R2_SECRET_KEY"),
		},
	}

	var err error
	if cfg.WorkerCount, err = intEnv("WORKER_COUNT"); err != nil {
		return Config{}, err
	}
	if cfg.HTTPPort, err = intEnv("HTTP_PORT"); err != nil {
		return Config{}, err
	}
	if cfg.MetricsPort, err = intEnv("METRICS_PORT"); err != nil {
		return Config{}, err
	}
	if cfg.MaxUploadMB, err = intEnv("MAX_UPLOAD_MB"); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("SKIP_UNREADABLE"); v != "" {
		if cfg.SkipUnreadable, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid SKIP_UNREADABLE %q: %w", v, err)
		}
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

func intEnv(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = "local"
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 1
	}
	if c.HTTPPort <= 0 {
		c.HTTPPort = 8080
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 20
	}
}

// ValidateWorker checks the settings the queue worker needs.
func (c *Config) ValidateWorker() error {
	var errs []error
	required := []struct{ key, val string }{
		{"DB_URL", c.DBURL},
		{"RABBITMQ_URL", c.RabbitMQURL},
		{"R2_ACCCOUNT_ID", c.R2.AccountID},
		{"R2_BUCKET", c.R2.Bucket},
		{"R2_ACCESS_KEY", c.R2.AccessKey},
		{"R2_SECRET_KEY", c.R2.SecretKey},
	}
	for _, r := range required {
		if r.val == "" {
			errs = append(errs, fmt.Errorf("empty %s in environment", r.key))
		}
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("METRICS_PORT must be between 0 and 65535, got %d", c.MetricsPort))
	}
	return errors.Join(errs...)
}

// ValidateServer checks the settings the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	return nil
}
