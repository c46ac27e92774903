// Package bench persists perft/search benchmark runs across process
// invocations so later runs can report a regression/improvement comparison
// against the immediately preceding run of the same suite.
package bench

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chessengine"

// dataDir returns the platform-specific data directory for the application.
//   - macOS: ~/Library/Application Support/chessengine/
//   - Linux: ~/.local/share/chessengine/
//   - Windows: %APPDATA%/chessengine/
func dataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// databaseDir returns the directory for the benchmark-history BadgerDB.
func databaseDir() (string, error) {
	base, err := dataDir()
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(base, "bench")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}
	return dbDir, nil
}
