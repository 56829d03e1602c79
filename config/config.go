// Package config loads the process-wide scheduling configuration from a
// config file, environment variables, and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/HSILA/glot"
)

// Config holds all configuration for the glot scheduling service.
type Config struct {
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SchedulingConfig holds the user-configurable scheduler settings.
type SchedulingConfig struct {
	DesiredRetention float64   `mapstructure:"desired_retention"`
	MaximumInterval  int       `mapstructure:"maximum_interval"`
	EnableFuzz       bool      `mapstructure:"enable_fuzz"`
	Weights          []float64 `mapstructure:"weights"` // empty → model defaults
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Scheduler builds a validated glot.Scheduler from the loaded settings.
func (c *Config) Scheduler() (*glot.Scheduler, error) {
	return glot.NewScheduler(c.SchedulingConfig())
}

// SchedulingConfig converts the loaded settings to the core's config value.
func (c *Config) SchedulingConfig() glot.SchedulingConfig {
	var weights []float64
	if len(c.Scheduling.Weights) > 0 {
		weights = c.Scheduling.Weights
	}
	return glot.SchedulingConfig{
		DesiredRetention: c.Scheduling.DesiredRetention,
		MaximumInterval:  c.Scheduling.MaximumInterval,
		EnableFuzz:       c.Scheduling.EnableFuzz,
		Weights:          weights,
	}
}

// Load reads configuration from file and environment variables.
//
// Lookup order: defaults, then glot.yaml in the working directory or
// $HOME/.glot, then GLOT_* environment variables. A .env file in the
// working directory is honored if present. Invalid scheduling settings
// fail here, wrapping glot.ErrInvalidConfiguration, so a bad weight
// vector never reaches a scheduling call.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	defaults := glot.DefaultConfig()
	v.SetDefault("scheduling.desired_retention", defaults.DesiredRetention)
	v.SetDefault("scheduling.maximum_interval", defaults.MaximumInterval)
	v.SetDefault("scheduling.enable_fuzz", defaults.EnableFuzz)

	v.SetDefault("logging.level", "info")

	v.SetConfigName("glot")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Join(homeDir(), ".glot"))

	v.SetEnvPrefix("GLOT")
	v.AutomaticEnv()

	_ = v.BindEnv("scheduling.desired_retention", "GLOT_DESIRED_RETENTION")
	_ = v.BindEnv("scheduling.maximum_interval", "GLOT_MAXIMUM_INTERVAL")
	_ = v.BindEnv("scheduling.enable_fuzz", "GLOT_ENABLE_FUZZ")
	_ = v.BindEnv("logging.level", "GLOT_LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK — use defaults + env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the loaded settings by constructing a scheduler from them.
func (c *Config) Validate() error {
	if _, err := c.Scheduler(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
