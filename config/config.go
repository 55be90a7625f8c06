package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config contains configuration for turtle runs
type Config struct {
	Tempo    TempoConfig    `mapstructure:"tempo"`
	Dynamics DynamicsConfig `mapstructure:"dynamics"`
	Run      RunConfig      `mapstructure:"run"`
	Export   ExportConfig   `mapstructure:"export"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
}

// TempoConfig controls how turtle speeds are interpreted
type TempoConfig struct {
	// Reference is the BPM of speed 1. Speeds above 10 are divided by it.
	Reference float64 `mapstructure:"reference"`
}

// DynamicsConfig controls default volumes
type DynamicsConfig struct {
	// Default is the dynamic marking a turtle starts with (ppp..fff)
	Default string `mapstructure:"default"`
}

// RunConfig controls sheet evaluation
type RunConfig struct {
	// Workers bounds how many turtles are evaluated at once
	Workers int `mapstructure:"workers"`
}

// ExportConfig controls MIDI file output
type ExportConfig struct {
	TicksPerBeat     int  `mapstructure:"ticks_per_beat"`
	ChannelPerTurtle bool `mapstructure:"channel_per_turtle"`
}

// SentryConfig configures error reporting. An empty DSN disables it.
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Tempo:    TempoConfig{Reference: 160},
		Dynamics: DynamicsConfig{Default: "mf"},
		Run:      RunConfig{Workers: 4},
		Export: ExportConfig{
			TicksPerBeat:     960,
			ChannelPerTurtle: true,
		},
		Sentry: SentryConfig{Environment: "development"},
	}
}

// SetDefaults registers the built-in configuration on v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("tempo.reference", defaults.Tempo.Reference)
	v.SetDefault("dynamics.default", defaults.Dynamics.Default)
	v.SetDefault("run.workers", defaults.Run.Workers)
	v.SetDefault("export.ticks_per_beat", defaults.Export.TicksPerBeat)
	v.SetDefault("export.channel_per_turtle", defaults.Export.ChannelPerTurtle)
	v.SetDefault("sentry.dsn", defaults.Sentry.DSN)
	v.SetDefault("sentry.environment", defaults.Sentry.Environment)
}

// NewViper builds a viper instance with defaults, environment overrides
// (TURTLES_TEMPO_REFERENCE, TURTLES_SENTRY_DSN, ...) and, when cfgFile is
// empty, the usual config file search path.
func NewViper(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TURTLES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (not finding one on the search path is not an
// error), then
// unmarshals and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var problems []string
	if c.Tempo.Reference <= 0 {
		problems = append(problems, fmt.Sprintf("tempo.reference must be positive (got %v)", c.Tempo.Reference))
	}
	if !isDynamic(c.Dynamics.Default) {
		problems = append(problems, fmt.Sprintf("dynamics.default must be one of ppp..fff (got %q)", c.Dynamics.Default))
	}
	if c.Run.Workers < 1 {
		problems = append(problems, fmt.Sprintf("run.workers must be at least 1 (got %d)", c.Run.Workers))
	}
	if c.Export.TicksPerBeat < 1 || c.Export.TicksPerBeat > 0x7FFF {
		problems = append(problems, fmt.Sprintf("export.ticks_per_beat must be in 1..32767 (got %d)", c.Export.TicksPerBeat))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "turtles")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".turtles"
	}
	return filepath.Join(home, ".config", "turtles")
}

func isDynamic(s string) bool {
	switch s {
	case "ppp", "pp", "p", "mp", "mf", "f", "ff", "fff":
		return true
	}
	return false
}
