package platformstrategy

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of a ping/pong run. It is read from YAML and
// then overridden by command line flags.
type Config struct {
	// Rounds is how many times each player prints.
	Rounds int `yaml:"rounds"`

	// LogLevel is a zerolog level name ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`

	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr"`

	// Color enables colored output.
	Color bool `yaml:"color"`

	// DispatcherName labels the UI dispatcher in logs and metrics.
	DispatcherName string `yaml:"dispatcher_name"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Rounds:         10,
		LogLevel:       "info",
		Color:          true,
		DispatcherName: "ui",
	}
}

// LoadConfig reads path over DefaultConfig. Keys missing from the file keep
// their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Rounds < 1 {
		return errors.Errorf("rounds must be at least 1, got %d", c.Rounds)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.DispatcherName == "" {
		return errors.New("dispatcher_name must not be empty")
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "log_level %q", c.LogLevel)
	}
	return lvl, nil
}
