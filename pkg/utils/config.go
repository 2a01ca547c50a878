package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
)

// EnvPrefix is prepended to environment overrides, e.g.
// ORBITCORE_SOLVER_TOLERANCE
const EnvPrefix = "ORBITCORE"

// Config represents the orbitcore configuration
type Config struct {
	Solver   SolverConfig   `yaml:"solver" mapstructure:"solver"`
	Fixtures FixturesConfig `yaml:"fixtures" mapstructure:"fixtures"`
	System   SystemConfig   `yaml:"system" mapstructure:"system"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// SolverConfig contains Kepler solver settings
type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance" mapstructure:"tolerance"`
	MaxIterations int     `yaml:"max_iterations" mapstructure:"max_iterations"`
}

// FixturesConfig contains fixture verification settings
type FixturesConfig struct {
	Tolerance     float64 `yaml:"tolerance" mapstructure:"tolerance"`
	Workers       int     `yaml:"workers" mapstructure:"workers"`
	StepsPerOrbit int     `yaml:"steps_per_orbit" mapstructure:"steps_per_orbit"`
}

// SystemConfig contains system resolution settings
type SystemConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
	// GravitationalConstant applies when a definition does not set its own
	GravitationalConstant float64 `yaml:"gravitational_constant" mapstructure:"gravitational_constant"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

// MetricsConfig contains metrics export settings
type MetricsConfig struct {
	// Textfile is written after each command when set
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			Tolerance:     orbital.DefaultKeplerTolerance,
			MaxIterations: orbital.DefaultKeplerMaxIterations,
		},
		Fixtures: FixturesConfig{
			Tolerance:     1e-6,
			Workers:       4,
			StepsPerOrbit: 2000,
		},
		System: SystemConfig{
			Workers:               4,
			GravitationalConstant: orbital.GravitationalConstant,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// KeplerSolver returns the solver described by the configuration
func (c SolverConfig) KeplerSolver() orbital.KeplerSolver {
	return orbital.KeplerSolver{Tolerance: c.Tolerance, MaxIterations: c.MaxIterations}
}

// ConfigDir returns the per-user configuration directory
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".orbitcore"), nil
}

// GetConfigPath returns the path to the default config file
func GetConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// setDefaults registers every key so environment overrides apply even when
// no config file mentions them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("solver.tolerance", cfg.Solver.Tolerance)
	v.SetDefault("solver.max_iterations", cfg.Solver.MaxIterations)
	v.SetDefault("fixtures.tolerance", cfg.Fixtures.Tolerance)
	v.SetDefault("fixtures.workers", cfg.Fixtures.Workers)
	v.SetDefault("fixtures.steps_per_orbit", cfg.Fixtures.StepsPerOrbit)
	v.SetDefault("system.workers", cfg.System.Workers)
	v.SetDefault("system.gravitational_constant", cfg.System.GravitationalConstant)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.json", cfg.Log.JSON)
	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)
}

// LoadConfig loads configuration from path, or from the default locations
// when path is empty. A missing default file is not an error; the defaults
// apply. Environment variables override file values.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes configuration as YAML, creating the directory
func SaveConfig(fs afero.Fs, path string, config *Config) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Solver.Tolerance <= 0 {
		return fmt.Errorf("solver tolerance must be positive")
	}
	if config.Solver.MaxIterations <= 0 {
		return fmt.Errorf("solver max iterations must be positive")
	}
	if config.Fixtures.Tolerance <= 0 {
		return fmt.Errorf("fixture tolerance must be positive")
	}
	if config.Fixtures.Workers < 0 || config.System.Workers < 0 {
		return fmt.Errorf("worker counts cannot be negative")
	}
	if config.Fixtures.StepsPerOrbit < 0 {
		return fmt.Errorf("steps per orbit cannot be negative")
	}
	if config.System.GravitationalConstant <= 0 {
		return fmt.Errorf("gravitational constant must be positive")
	}
	if _, err := zerolog.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", config.Log.Level)
	}
	return nil
}
