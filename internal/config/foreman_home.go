package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetForemanHome returns the foreman home directory
// Priority order:
//  1. FOREMAN_HOME environment variable (if set)
//  2. Project root (detected by a .foreman-root marker or go.mod)
//  3. Current working directory (fallback)
//
// The directory is created if it doesn't exist
func GetForemanHome() (string, error) {
	// Try env var first
	if home := os.Getenv("FOREMAN_HOME"); home != "" {
		return home, nil
	}

	if root, err := findProjectRoot(); err == nil && root != "" {
		home := filepath.Join(root, ".foreman")
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create foreman home directory: %w", err)
		}
		return home, nil
	}

	// Fallback to current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	home := filepath.Join(cwd, ".foreman")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create foreman home directory: %w", err)
	}

	return home, nil
}

// findProjectRoot walks up from the working directory looking for a
// .foreman-root marker file or a go.mod.
func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	current := cwd
	for {
		// Marker file takes priority over go.mod
		if _, err := os.Stat(filepath.Join(current, ".foreman-root")); err == nil {
			return current, nil
		}

		goModPath := filepath.Join(current, "go.mod")
		if data, err := os.ReadFile(goModPath); err == nil {
			if strings.Contains(string(data), "module ") {
				return current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			break
		}
		current = parent
	}

	return "", fmt.Errorf("project root not found (looking for .foreman-root or go.mod)")
}

// GetHistoryDBPath returns the absolute path to the run history database
// Always returns: $FOREMAN_HOME/history/runs.db
func GetHistoryDBPath() (string, error) {
	home, err := GetForemanHome()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, "history", "runs.db"), nil
}

// GetHistoryDir returns the history directory path
// The directory is created if it doesn't exist
func GetHistoryDir() (string, error) {
	home, err := GetForemanHome()
	if err != nil {
		return "", err
	}

	historyDir := filepath.Join(home, "history")
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return "", fmt.Errorf("create history directory: %w", err)
	}

	return historyDir, nil
}
