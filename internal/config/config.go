// Package config loads tablekit settings from flags, environment and an optional yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
	Admin  AdminConfig  `mapstructure:"admin"`
}

type StoreConfig struct {
	Path         string   `mapstructure:"path"`
	LockedTables []string `mapstructure:"locked_tables"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	SeqURL string `mapstructure:"seq_url"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
}

type AdminConfig struct {
	Port int `mapstructure:"port"`
}

// SetDefaults registers the baseline values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.path", ".")
	v.SetDefault("store.locked_tables", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.seq_url", "")
	v.SetDefault("output.format", "json")
	v.SetDefault("admin.port", 8383)
}

// Load reads cfgFile, or tablekit.yaml from the executable directory or the
// working directory when cfgFile is empty. A missing default file is not an error.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("TABLEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
		v.AddConfigPath(".")
		v.SetConfigName("tablekit")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that viper cannot.
func (c Config) Validate() error {
	switch c.Output.Format {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("output.format must be json, yaml or text, got %q", c.Output.Format)
	}
	if c.Admin.Port < 1 || c.Admin.Port > 65535 {
		return fmt.Errorf("admin.port out of range: %d", c.Admin.Port)
	}
	return nil
}
