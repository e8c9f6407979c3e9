// Package config loads h5tool settings from flags, H5TOOL_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the complete h5tool configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`

	// HeapCacheSize is the number of global heap collections kept while
	// reading variable-length strings.
	HeapCacheSize int `mapstructure:"heap_cache_size" validate:"min=1,max=65536"`
}

// LogConfig controls the diagnostic logger. Logs go to stderr.
type LogConfig struct {
	Level    string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"required,oneof=console json"`
}

// OutputConfig controls how listings and values are printed.
type OutputConfig struct {
	Format string `mapstructure:"format" validate:"required,oneof=text yaml json"`

	// CreationOrder lists members in creation order where groups track it.
	CreationOrder bool `mapstructure:"creation_order"`

	// MaxValues caps the elements printed per value; 0 prints all.
	MaxValues int `mapstructure:"max_values" validate:"min=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Output: OutputConfig{
			Format:    "text",
			MaxValues: 16,
		},
		HeapCacheSize: 64,
	}
}

// flag names and the keys they set.
var flagKeys = map[string]string{
	"log-level":       "log.level",
	"log-encoding":    "log.encoding",
	"format":          "output.format",
	"creation-order":  "output.creation_order",
	"max-values":      "output.max_values",
	"heap-cache-size": "heap_cache_size",
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	fs.String("log-encoding", d.Log.Encoding, "log encoding: console or json")
	fs.StringP("format", "o", d.Output.Format, "output format: text, yaml or json")
	fs.BoolP("creation-order", "c", d.Output.CreationOrder, "list members in creation order when tracked")
	fs.Int("max-values", d.Output.MaxValues, "elements printed per value, 0 for all")
	fs.Int("heap-cache-size", d.HeapCacheSize, "cached global heap collections")
}

// Load reads the configuration. configPath names a YAML file that must
// exist; when empty, config.yaml under the user config directory is used if
// present. fs may be nil.
func Load(configPath string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setup(v, configPath)

	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.encoding", d.Log.Encoding)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.creation_order", d.Output.CreationOrder)
	v.SetDefault("output.max_values", d.Output.MaxValues)
	v.SetDefault("heap_cache_size", d.HeapCacheSize)

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setup(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("H5TOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(configDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// configDir returns $XDG_CONFIG_HOME/h5tool, falling back to ~/.config.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "h5tool")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "h5tool")
}
