package config

import (
	"os"
	"path/filepath"
)

const settingsFileName = "settings.yaml"

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

// DefaultSettings returns the configuration used when no settings file exists
// or when a persisted field fails validation.
func DefaultSettings() WorkerSettings {
	return WorkerSettings{
		IP:      "127.0.0.1",
		Port:    1242,
		TCPMode: false,
	}
}

// DefaultSettingsDir resolves the directory holding the settings file. The
// host may provision one via AWIMCTL_SETTINGS_DIR; otherwise the standard
// per-user config directory is used.
func DefaultSettingsDir() (string, error) {
	if dir := os.Getenv("AWIMCTL_SETTINGS_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "awimctl"), nil
}
