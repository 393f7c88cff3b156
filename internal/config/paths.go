package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment overrides for the on-disk locations.
const (
	EnvHome = "REPOHOOKS_HOME"
	EnvDB   = "REPOHOOKS_DB"
)

// DataDir returns the directory used to store repohooks data.
func DataDir() (string, error) {
	if d := os.Getenv(EnvHome); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".repohooks"), nil
}

// EnsureDataDir returns DataDir after making sure it exists.
func EnsureDataDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return d, nil
}

// DBPath returns the full path to the SQLite database file.
func DBPath() (string, error) {
	if p := os.Getenv(EnvDB); p != "" {
		return p, nil
	}
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "repohooks.db"), nil
}
