package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Features.WindowSize < 1 {
		return errors.New("features.window_size must be >= 1")
	}
	if len(c.Features.EMAAlphas) != 3 {
		return fmt.Errorf("features.ema_alphas must have exactly 3 entries, got %d", len(c.Features.EMAAlphas))
	}
	prev := 0.0
	for _, a := range c.Features.EMAAlphas {
		if a <= 0 || a > 1 {
			return fmt.Errorf("features.ema_alphas entries must be in (0, 1], got %v", a)
		}
		if a <= prev {
			return fmt.Errorf("features.ema_alphas must be strictly ascending, got %v", c.Features.EMAAlphas)
		}
		prev = a
	}

	if c.Align.StalenessTolerance <= 0 {
		return errors.New("align.staleness_tolerance must be positive")
	}

	if c.Jobs.Concurrency < 1 {
		return errors.New("jobs.concurrency must be >= 1")
	}
	if c.Jobs.BatchSize < 1 {
		return errors.New("jobs.batch_size must be >= 1")
	}
	if c.Jobs.BufferSize < 1 {
		return errors.New("jobs.buffer_size must be >= 1")
	}
	if c.Jobs.WriteRetries < 0 {
		return errors.New("jobs.write_retries must be >= 0")
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 0 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
