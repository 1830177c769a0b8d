// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config is read from the environment. A .env file is loaded first by the binaries.
type Config struct {
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	QueueName string `env:"HISTORIAN_QUEUE_NAME" envDefault:"set_actions"`
	BatchSize int    `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushMs   int    `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`

	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BatchSize <= 0 {
		return cfg, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	if cfg.FlushMs <= 0 {
		return cfg, fmt.Errorf("HISTORIAN_FLUSH_MS must be positive, got %d", cfg.FlushMs)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// FlushInterval is FlushMs as a duration.
func (c Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushMs) * time.Millisecond
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
