// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "legallens"

// Environment overrides for the config and data directories.
const (
	ConfigDirEnv = "LEGALLENS_CONFIG_DIR"
	DataDirEnv   = "LEGALLENS_DATA_DIR"
)

// GetConfigDir returns the legallens configuration directory
// Uses the platform user config directory (APPDATA on Windows, XDG on Unix)
func GetConfigDir() string {
	// Check for explicit override first (works on all platforms)
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return NormalizePath(dir)
	}

	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), "."+appName)
}

// GetConfigFile returns the path to the main config file
func GetConfigFile() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetSecretsFile returns the path to the optional secrets.env file
func GetSecretsFile() string {
	return filepath.Join(GetConfigDir(), "secrets.env")
}

// GetDataDir returns the directory holding the analysis history database
func GetDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return NormalizePath(dir)
	}

	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName)
		}
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), ".local", "share", appName)
}

// GetHistoryFile returns the default SQLite history path
func GetHistoryFile() string {
	return filepath.Join(GetDataDir(), "history.db")
}

// EnsureDir creates dir (and parents) with user-only permissions
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o700)
}

// NormalizePath expands a leading ~ and cleans the path
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		path = filepath.Join(homeDir(), path[1:])
	}
	return filepath.Clean(path)
}

// ValidatePath validates a path for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return nil // Empty path is valid
	}

	if strings.ContainsRune(path, 0) {
		return &PathValidationError{
			Path:   path,
			Reason: "contains null byte",
		}
	}

	if runtime.GOOS == "windows" {
		return validateWindowsPath(path)
	}
	return nil
}

// validateWindowsPath validates a Windows path
func validateWindowsPath(path string) error {
	for i, char := range path {
		if !strings.ContainsRune(`<>:"|?*`, char) {
			continue
		}
		// Skip colon if it's part of a drive letter (position 1: C:)
		if char == ':' && i == 1 {
			continue
		}
		return &PathValidationError{
			Path:   path,
			Reason: "contains invalid character: " + string(char),
		}
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// PathValidationError represents a path validation error
type PathValidationError struct {
	Path   string
	Reason string
}

func (e *PathValidationError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Reason
}
