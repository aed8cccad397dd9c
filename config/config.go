// Package config loads runtime configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime configuration.
type Config struct {
	Engine   EngineConfig
	Python   PythonConfig
	SQL      SQLConfig
	Table    TableConfig
	Defaults DefaultsConfig
}

// EngineConfig holds host engine settings. An empty Command means no host
// engine is launched and execution falls through to the lower tiers.
type EngineConfig struct {
	Command      string
	Args         []string
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	Timeout      time.Duration
}

// PythonConfig holds python subprocess settings.
type PythonConfig struct {
	Interpreter string
}

// SQLConfig holds sqlite settings. An empty DSN disables direct sql
// execution.
type SQLConfig struct {
	DSN string
}

// TableConfig holds tabular rendering settings.
type TableConfig struct {
	MaxRows int `mapstructure:"max_rows"`
}

// DefaultsConfig holds cross-backend execution settings.
type DefaultsConfig struct {
	Timeout time.Duration
}

// Load reads configuration from file and env. Env var overrides use prefix
// INKWELL_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("engine.command", "")
	v.SetDefault("engine.probe_timeout", "2s")
	v.SetDefault("engine.timeout", "30s")
	v.SetDefault("python.interpreter", "python3")
	v.SetDefault("sql.dsn", "")
	v.SetDefault("table.max_rows", 100)
	v.SetDefault("defaults.timeout", "30s")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("INKWELL_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "inkwell"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("INKWELL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
