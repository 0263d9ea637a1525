// Package config handles configuration loading for slowcors.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default values.
const (
	DefaultLatency  = 200
	DefaultPort     = 3785
	DefaultLogLevel = "info"
)

// MaxLatency is the largest latency, in milliseconds, that fits a time.Duration.
const MaxLatency = math.MaxInt64 / int64(time.Millisecond)

// Config represents the application configuration.
type Config struct {
	Latency int           `mapstructure:"latency" json:"latency" yaml:"latency"` // milliseconds
	Port    int           `mapstructure:"port" json:"port" yaml:"port"`
	Log     LoggingConfig `mapstructure:"log" json:"log" yaml:"log"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level" yaml:"level"`
}

// Load resolves the configuration from defaults and command-line flags.
// Only flags that were set override a default; no config file or
// environment variable is consulted.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if flags != nil {
		for key, name := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("error binding flag %q: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"latency": "latency",
	"port":    "port",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("latency", DefaultLatency)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log.level", DefaultLogLevel)
}

// Default returns the configuration used when no flag overrides it.
func Default() *Config {
	return &Config{
		Latency: DefaultLatency,
		Port:    DefaultPort,
		Log:     LoggingConfig{Level: DefaultLogLevel},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Latency < 0 {
		return fmt.Errorf("invalid latency %d: must be non-negative", c.Latency)
	}
	if int64(c.Latency) > MaxLatency {
		return fmt.Errorf("invalid latency %d: must be at most %d", c.Latency, MaxLatency)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 0 and 65535", c.Port)
	}
	return nil
}

// LatencyDuration returns the per-delay latency.
func (c *Config) LatencyDuration() time.Duration {
	return time.Duration(c.Latency) * time.Millisecond
}
