// Package config resolves the engine's runtime configuration — backend
// socket/db paths, namespace, and the LLM model name — layered environment
// over a YAML config file over built-in defaults. The only flag-supplied
// input is the config file path itself.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration for one process.
type Config struct {
	SocketPath   string
	DBPath       string
	Namespace    string
	Model        string
	DefaultLimit int
}

// TableName returns the backend table name for this configuration:
// "memories" by default, "memories_{namespace}" when namespaced.
func (c *Config) TableName() string {
	if c.Namespace == "" {
		return "memories"
	}
	return fmt.Sprintf("memories_%s", c.Namespace)
}

// Load resolves configuration from, in increasing priority: built-in
// defaults, a YAML file at configFile (or ~/.config/fmemory/config.yaml
// if configFile is empty and that file exists), the FERRIDYN_MEMORY_SOCKET
// and FERRIDYN_MEMORY_DB environment variables. No other setting is read
// from the environment.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("socket_path", defaultSocketPath())
	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("namespace", "")
	v.SetDefault("model", "claude-3-5-haiku-20241022")
	v.SetDefault("default_limit", 50)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "fmemory"))
			v.SetConfigName("config")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	cfg := &Config{
		SocketPath:   v.GetString("socket_path"),
		DBPath:       v.GetString("db_path"),
		Namespace:    v.GetString("namespace"),
		Model:        v.GetString("model"),
		DefaultLimit: v.GetInt("default_limit"),
	}

	// These two follow the spec's literal env var names (SPEC_FULL.md
	// §6) rather than viper's FERRIDYN_MEMORY_SOCKET_PATH-style
	// automatic binding, so they're applied as an explicit override
	// after the viper read.
	if s := os.Getenv("FERRIDYN_MEMORY_SOCKET"); s != "" {
		cfg.SocketPath = s
	}
	if d := os.Getenv("FERRIDYN_MEMORY_DB"); d != "" {
		cfg.DBPath = d
	}

	return cfg, nil
}

func defaultSocketPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "fmemory", "fmemory.sock")
}

func defaultDBPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "fmemory", "fmemory.db")
}
