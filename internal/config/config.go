// Package config loads settings for the nutrition command line tool.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"nutrition/internal/log"
)

// EnvPrefix prefixes every environment override, e.g. NUTRITION_DATABASE.
const EnvPrefix = "NUTRITION"

type LogConfig struct {
	Path    string `mapstructure:"path"`
	Level   string `mapstructure:"level"` // debug, info, warn or error
	Enabled bool   `mapstructure:"enabled"`
}

// Config holds all configuration options for nutrition.
type Config struct {
	Database string    `mapstructure:"database"`
	Catalog  string    `mapstructure:"catalog"` // empty means the built in catalog
	BaseUnit string    `mapstructure:"base_unit"`
	Log      LogConfig `mapstructure:"log"`
}

func Defaults() Config {
	return Config{
		Database: "nutrition.db",
		BaseUnit: "gram",
		Log: LogConfig{
			Path:  "nutrition.log",
			Level: "info",
		},
	}
}

// SetDefaults registers Defaults with v so unset keys still unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("database", d.Database)
	v.SetDefault("catalog", d.Catalog)
	v.SetDefault("base_unit", d.BaseUnit)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.enabled", d.Log.Enabled)
}

// NewViper returns a viper instance with defaults and environment overrides
// wired up. The caller may bind flags before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the YAML file at path into a Config. An empty path looks for
// nutrition.yaml in the working directory and falls back to defaults when
// there is none.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("nutrition")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New("database: path is required")
	}
	if c.BaseUnit == "" {
		return errors.New("base_unit: unit name is required")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Enabled && c.Log.Path == "" {
		return errors.New("log.path: required when logging is enabled")
	}
	return nil
}
