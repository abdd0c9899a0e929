package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.takeoffpro/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".takeoffpro")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeJSON(path, config)
}

// LoadAppConfig reads an AppConfig from the given path.
// If the file does not exist, it returns DefaultAppConfig with no error.
// Constants missing from an older file are filled from the defaults.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, err
	}
	config := model.DefaultAppConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, err
	}
	if config.RecentSessions == nil {
		config.RecentSessions = []string{}
	}
	if config.KLength <= 0 {
		config.KLength = model.DefaultKLength
	}
	if config.KArea <= 0 {
		config.KArea = model.DefaultKArea
	}
	if config.DefaultScale.Validate() != nil {
		config.DefaultScale = 1
	}
	return config, nil
}

// writeJSON marshals v with indentation and writes it, creating parent directories.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
