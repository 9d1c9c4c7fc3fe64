// Package config loads harness settings from defaults, an optional YAML
// file, GEODVALIDATE_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "GEODVALIDATE"

// Config is the validator's settings after defaults, file, env and flags.
type Config struct {
	Solver struct {
		DirectArgs  []string `mapstructure:"direct_args"`
		InverseArgs []string `mapstructure:"inverse_args"`
		Layout      string
	}
	Ellipsoid struct {
		A float64
		F float64
	}
	Kinds       []string
	Reverse     string
	Consistency bool
	Regions     []string
	Report      struct {
		Regions     bool
		MetricsFile string `mapstructure:"metrics_file"`
	}
	Input string
	Log   struct {
		Level  string
		Format string
	}
}

// New returns a viper instance with every default set and environment
// overrides enabled. Callers bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("solver.direct_args", []string{"-f", "-p", "16"})
	v.SetDefault("solver.inverse_args", []string{"-i", "-f", "-p", "16"})
	v.SetDefault("solver.layout", "full")
	v.SetDefault("ellipsoid.a", 6378137.0)
	v.SetDefault("ellipsoid.f", 1/298.257223563)
	v.SetDefault("kinds", []string{"direct-p1", "direct-p2", "inverse"})
	v.SetDefault("reverse", "negate-distance")
	v.SetDefault("consistency", false)
	v.SetDefault("regions", []string{})
	v.SetDefault("report.regions", false)
	v.SetDefault("report.metrics_file", "")
	v.SetDefault("input", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetConfigName("geodvalidate")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and decodes the merged settings. An
// explicit file set with SetConfigFile must exist; the default search may
// find nothing.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
