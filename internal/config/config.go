// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads the vaultik configuration from files, environment
// variables and command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	DB        DBConfig        `mapstructure:"db" yaml:"db"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session"`
	Clipboard ClipboardConfig `mapstructure:"clipboard" yaml:"clipboard"`
	Language  string          `mapstructure:"language" yaml:"language"`
	Debug     bool            `mapstructure:"debug" yaml:"debug"`
}

type DBConfig struct {
	// Type selects the storage backend: sqlite, postgres, mysql or memory.
	Type string `mapstructure:"type" yaml:"type"`
	DSN  string `mapstructure:"dsn" yaml:"dsn"`
}

type SessionConfig struct {
	// TTLMinutes is the idle lifetime of an unlocked session.
	TTLMinutes int `mapstructure:"ttl_minutes" yaml:"ttl_minutes"`
	// LivenessSeconds is the interval between background status re-checks
	// while unlocked. Zero disables polling.
	LivenessSeconds int `mapstructure:"liveness_seconds" yaml:"liveness_seconds"`
}

// TTL returns the idle session lifetime as a duration.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

type ClipboardConfig struct {
	// ClearSeconds is how long a copied secret stays on the clipboard.
	ClearSeconds int `mapstructure:"clear_seconds" yaml:"clear_seconds"`
}

// Defaults returns the default settings applied before any file or
// environment override.
func Defaults() map[string]any {
	return map[string]any{
		"db.type":                  "sqlite",
		"db.dsn":                   defaultDSN(),
		"session.ttl_minutes":      15,
		"session.liveness_seconds": 300,
		"clipboard.clear_seconds":  30,
		"language":                 "en",
		"debug":                    false,
	}
}

func defaultDSN() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vaultik.db"
	}
	return filepath.Join(dir, "vaultik", "vaultik.db")
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Vaultik")
		default: // Linux, macOS, etc.
			configDir = "/etc/vaultik"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "vaultik")
	}

	return filepath.Join(configDir, "vaultik.yaml"), nil
}

// LoadConfig resolves the configuration with the usual precedence: flags
// beat environment variables, which beat the config file, which beats the
// built-in defaults. A missing config file is not an error.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicitFile *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("vaultik")
	v.SetConfigType("yaml")

	// An explicit --config path has the highest precedence for file-based
	// configuration.
	if explicitFile != nil {
		v.SetConfigFile(*explicitFile)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("vaultik")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// WriteConfigFile persists the configuration as YAML to the user or system
// config location.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600: the DSN may embed database credentials.
	return os.WriteFile(path, data, 0600)
}
