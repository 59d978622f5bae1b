// Package config loads and validates the pipeline configuration from a
// YAML file, with working defaults for every field so a file is optional.
package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/ocean-watch/rfmo-ingestion/pkg/adapters"
	"github.com/ocean-watch/rfmo-ingestion/pkg/database"
	"github.com/ocean-watch/rfmo-ingestion/pkg/metrics"
	"github.com/ocean-watch/rfmo-ingestion/pkg/scheduler"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "250ms" or "6h".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the root configuration document.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Adapters  AdaptersConfig  `yaml:"adapters"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	LogLevel  string          `yaml:"log_level"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type StorageConfig struct {
	Root string `yaml:"root"`
}

type FetchConfig struct {
	UserAgent   string   `yaml:"user_agent"`
	Timeout     Duration `yaml:"timeout"`
	MaxAttempts int      `yaml:"max_attempts"`
	BackoffBase Duration `yaml:"backoff_base"`
	MinInterval Duration `yaml:"min_interval"`
}

type AdaptersConfig struct {
	// Default is the adapter set used when the caller does not name any.
	Default []string `yaml:"default"`
}

type SchedulerConfig struct {
	Interval Duration `yaml:"interval"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: database.DriverSQLite,
			Path:   "./rfmo_ingestion.db",
		},
		Storage: StorageConfig{Root: "./rfmo"},
		Fetch: FetchConfig{
			UserAgent:   adapters.DefaultUserAgent,
			Timeout:     Duration(adapters.DefaultTimeout),
			MaxAttempts: 3,
			BackoffBase: Duration(time.Second),
			MinInterval: Duration(250 * time.Millisecond),
		},
		Adapters:  AdaptersConfig{Default: []string{"iccat", "wcpfc", "iotc"}},
		Scheduler: SchedulerConfig{Interval: Duration(scheduler.DefaultInterval)},
		Metrics:   MetricsConfig{Addr: metrics.DefaultAddr},
		LogLevel:  "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(body, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Database, validation.Required),
		validation.Field(&c.Storage, validation.Required),
		validation.Field(&c.Fetch),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
	)
}

// Validate checks the database block.
func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(database.DriverSQLite, database.DriverPostgres)),
		validation.Field(&c.Path,
			validation.Required.When(c.Driver == database.DriverSQLite).
				Error("path is required for the sqlite driver")),
		validation.Field(&c.DSN,
			validation.Required.When(c.Driver == database.DriverPostgres).
				Error("dsn is required for the postgres driver")),
	)
}

// Validate checks the storage block.
func (c StorageConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Root, validation.Required),
	)
}

// Validate checks the fetch block.
func (c FetchConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxAttempts, validation.Min(1)),
		validation.Field(&c.Timeout, validation.Min(Duration(0))),
		validation.Field(&c.BackoffBase, validation.Min(Duration(0))),
		validation.Field(&c.MinInterval, validation.Min(Duration(0))),
	)
}
