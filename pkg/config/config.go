// Package config loads hearthctl settings from TOML files and HEARTHSTAY_
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

var (
	v              = viper.New()
	configDir      string
	configFilePath string
)

// Keys that may be read and written with `hearthctl config`
var knownKeys = map[string]bool{
	"api.base_url":      true,
	"api.token":         true,
	"api.timeout":       true,
	"api.stale_seconds": true,
	"output.format":     true,
	"log.level":         true,
	"log.file":          true,
}

// getConfigDir returns the per-user config directory
func getConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "hearthstay", "cli"), nil
	}

	// ~/.config/hearthstay/cli
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hearthstay", "cli"), nil
}

func getSystemConfigPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{filepath.Join(os.Getenv("ProgramFiles"), "Hearthstay", "cli", "config.toml")}
	}
	return []string{
		"/etc/hearthstay/cli/config.toml",
		"/usr/local/etc/hearthstay/cli/config.toml",
	}
}

// Init loads the system config, then the user config at configPath (or the
// default location), then HEARTHSTAY_* environment overrides.
func Init(configPath string) error {
	var err error
	if configPath != "" {
		configDir = filepath.Dir(configPath)
		configFilePath = configPath
	} else {
		configDir, err = getConfigDir()
		if err != nil {
			return err
		}
		configFilePath = filepath.Join(configDir, "config.toml")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	v = viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("HEARTHSTAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults()

	for _, sysConfigPath := range getSystemConfigPaths() {
		if _, err := os.Stat(sysConfigPath); err == nil {
			v.SetConfigFile(sysConfigPath)
			_ = v.ReadInConfig()
			break
		}
	}

	// user config overrides system config
	if _, err := os.Stat(configFilePath); err == nil {
		v.SetConfigFile(configFilePath)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", configFilePath, err)
		}
	}

	return nil
}

func setDefaults() {
	v.SetDefault("api.base_url", "http://localhost:8787")
	v.SetDefault("api.timeout", 30)
	v.SetDefault("api.stale_seconds", 30)
	v.SetDefault("output.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(configDir, "hearthctl.log"))
}

// expandPath expands a leading ~ to the home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetString returns a string configuration value
func GetString(key string) string {
	value := v.GetString(key)
	if key == "log.file" {
		return expandPath(value)
	}
	return value
}

// GetInt returns an int configuration value
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool returns a bool configuration value
func GetBool(key string) bool {
	return v.GetBool(key)
}

// Set stores a value in the user config file
func Set(key, value string) error {
	if !knownKeys[key] {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	v.Set(key, value)
	return v.WriteConfigAs(configFilePath)
}

// Keys lists the settable keys in sorted order
func Keys() []string {
	out := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// All returns the effective value of every known key
func All() map[string]string {
	out := make(map[string]string, len(knownKeys))
	for k := range knownKeys {
		out[k] = GetString(k)
	}
	return out
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	return configDir
}

// GetConfigFilePath returns the user config file path
func GetConfigFilePath() string {
	return configFilePath
}
