package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load resolves the configuration domain from file, environment and
// defaults. Lookup order when cfgFile is empty:
//
//  1. .memlink/config.yaml (current directory)
//  2. ~/.config/memlink/config.yaml (user config)
//
// Environment variables prefixed MEMLINK_ override file values, for example
// MEMLINK_GLOBAL_ROOT_PATH. A missing config file is not an error; the
// defaults form a complete domain on their own.
func Load(cfgFile string) (Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("global.root_path", defaults.Global.RootPath)
	v.SetDefault("global.prefix", defaults.Global.Prefix)
	v.SetDefault("global.node.directory", defaults.Global.Node.Directory)
	v.SetDefault("global.node.cleanup_dead_nodes", defaults.Global.Node.CleanupDeadNodes)
	v.SetDefault("global.service.directory", defaults.Global.Service.Directory)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	v.SetEnvPrefix("MEMLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if _, err := os.Stat(".memlink/config.yaml"); err == nil {
		v.SetConfigFile(".memlink/config.yaml")
	} else {
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".config", "memlink"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			// An explicitly named file must exist and parse.
			return Config{}, fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
