// Config loading for the ferry CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/ferry/internal/paths"
	"github.com/mesh-intelligence/ferry/pkg/types"
)

// envPrefix makes every config key overridable as FERRY_<KEY>.
const envPrefix = "FERRY"

// loadConfig reads the resolved config file with Viper, applies FERRY_*
// environment overrides, and validates the result. A missing config file
// is not an error; every key has a default or an env override.
func loadConfig(configFlag string) (types.Config, error) {
	path, err := paths.ResolveConfigFile(configFlag)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config file: %w", err)
	}

	v := viper.New()
	v.SetDefault("source_db_path", "")
	v.SetDefault("page_size", 500)
	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_database", "project_management")
	v.SetDefault("mongo_max_pool_size", 100)
	v.SetDefault("mongo_min_pool_size", 10)
	v.SetDefault("mongo_server_selection_timeout_ms", 5000)
	v.SetDefault("mongo_connect_timeout_ms", 10000)
	v.SetDefault("batch_size", 1000)
	v.SetDefault("sample_size", 5)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return types.Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}
