// Package config loads and validates YAML configuration for the
// market-signals batch jobs.
package config

// Config is the root configuration shared by all batch jobs.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Database DBConfig       `yaml:"database"`
	Features FeaturesConfig `yaml:"features"`
	Align    AlignConfig    `yaml:"align"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this job runner.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// DBConfig holds the time-series database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// FeaturesConfig holds feature calculator parameters.
type FeaturesConfig struct {
	WindowSize int       `yaml:"window_size"`
	EMAAlphas  []float64 `yaml:"ema_alphas"`
}

// AlignConfig holds cross-venue alignment parameters.
type AlignConfig struct {
	StalenessTolerance Duration `yaml:"staleness_tolerance"`
}

// JobsConfig holds batch runner settings.
type JobsConfig struct {
	Concurrency   int      `yaml:"concurrency"`
	BatchSize     int      `yaml:"batch_size"`
	BufferSize    int      `yaml:"buffer_size"`
	WriteRetries  int      `yaml:"write_retries"`
	RetryBaseWait Duration `yaml:"retry_base_wait"`
}

// MetricsConfig holds Prometheus metrics settings. Port 0 disables the
// metrics endpoint (batch jobs are often short-lived).
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
