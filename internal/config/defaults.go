package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultWindowSize         = 20
	DefaultStalenessTolerance = Duration(5 * time.Minute)
	DefaultConcurrency        = 8
	DefaultBatchSize          = 500
	DefaultBufferSize         = 4096
	DefaultWriteRetries       = 3
	DefaultRetryBaseWait      = Duration(time.Second)
	DefaultMetricsPath        = "/metrics"
)

// DefaultEMAAlphas are the OFI smoothing factors, ascending.
var DefaultEMAAlphas = []float64{0.1, 0.3, 0.5}

func (c *Config) applyDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	if c.Features.WindowSize == 0 {
		c.Features.WindowSize = DefaultWindowSize
	}
	if len(c.Features.EMAAlphas) == 0 {
		c.Features.EMAAlphas = append([]float64(nil), DefaultEMAAlphas...)
	}

	if c.Align.StalenessTolerance == 0 {
		c.Align.StalenessTolerance = DefaultStalenessTolerance
	}

	if c.Jobs.Concurrency == 0 {
		c.Jobs.Concurrency = DefaultConcurrency
	}
	if c.Jobs.BatchSize == 0 {
		c.Jobs.BatchSize = DefaultBatchSize
	}
	if c.Jobs.BufferSize == 0 {
		c.Jobs.BufferSize = DefaultBufferSize
	}
	if c.Jobs.WriteRetries == 0 {
		c.Jobs.WriteRetries = DefaultWriteRetries
	}
	if c.Jobs.RetryBaseWait == 0 {
		c.Jobs.RetryBaseWait = DefaultRetryBaseWait
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
