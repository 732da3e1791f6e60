package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/ersinak/upload-dispatcher/internal/domain"
)

type Config struct {
	DatabasePath        string `env:"DATABASE_PATH,default=videos.db"`
	UploadDir           string `env:"UPLOAD_DIR,default=uploads"`
	SessionDir          string `env:"SESSION_DIR,default=.sessions"`
	PollIntervalSeconds int    `env:"POLL_INTERVAL_SECONDS,default=30"`
	RetryPolicy         string `env:"RETRY_POLICY,default=retry_until_success"`
	DueWindow           string `env:"DUE_WINDOW,default=open"`
	MetricsPort         int    `env:"METRICS_PORT,default=0"`
	LogLevel            string `env:"LOG_LEVEL,default=info"`

	policy domain.RetryPolicy
	window domain.DueWindow
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.policy, err = domain.ParseRetryPolicyFromString(cfg.RetryPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.window, err = domain.ParseDueWindowFromString(cfg.DueWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.PollIntervalSeconds <= 0 {
		return nil, fmt.Errorf("failed to load config: poll interval must be positive, got %d", cfg.PollIntervalSeconds)
	}

	return &cfg, nil
}

// PollInterval is the fixed sleep between dispatch cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) Policy() domain.RetryPolicy { return c.policy }

func (c *Config) Window() domain.DueWindow { return c.window }
