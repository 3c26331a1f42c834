package config

import (
	"os"
	"path/filepath"

	"github.com/julianstephens/habitlit/internal/constants"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// ConfigDir holds config.toml and logs/
func ConfigDir() string {
	return filepath.Join(XDGConfigHome(), constants.AppName)
}

// DataDir holds the sqlite database, the file backend and backups/
func DataDir() string {
	return filepath.Join(XDGDataHome(), constants.AppName)
}

func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), constants.ConfigFileName)
}

func DefaultDBPath() string {
	return filepath.Join(DataDir(), constants.DefaultDBName)
}

func DefaultFilePath() string {
	return filepath.Join(DataDir(), constants.DefaultDataFile)
}

func BackupDir() string {
	return filepath.Join(DataDir(), constants.BackupDirName)
}
