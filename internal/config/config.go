// Package config resolves the per-user application data directory and loads
// optional settings from a YAML file inside it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	appDirName     = "accountkeeper"
	configFileName = "config.yaml"
	dbFileName     = "accounts.db"
)

// Config holds shell-level settings. Every field is optional; zero values
// fall back to defaults at load time.
type Config struct {
	// DataDir is where the database, key file and config live.
	DataDir string `yaml:"data_dir"`
	// DBPath overrides the database file location.
	DBPath string `yaml:"db_path"`
	// ClientPath is the game client executable used for logins.
	ClientPath string `yaml:"client_path"`
	// ClientProcs are process names killed before a login launch.
	ClientProcs []string `yaml:"client_procs"`
}

// DefaultDataDir returns the per-user application data directory,
// e.g. ~/.config/accountkeeper on Linux or %AppData%\accountkeeper on Windows.
func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// Load reads config.yaml from dataDir if present, applies defaults and
// creates the data directory when absent. An empty dataDir selects the
// per-user default location.
func Load(dataDir string) (*Config, error) {
	var err error
	if dataDir == "" {
		dataDir, err = DefaultDataDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	cfg := &Config{DataDir: dataDir}
	raw, err := os.ReadFile(filepath.Join(dataDir, configFileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configFileName, err)
		}
		// The file may not relocate its own directory.
		cfg.DataDir = dataDir
	case errors.Is(err, os.ErrNotExist):
		// No file is fine; all defaults.
	default:
		return nil, fmt.Errorf("read %s: %w", configFileName, err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(dataDir, dbFileName)
	}
	if len(cfg.ClientProcs) == 0 {
		cfg.ClientProcs = []string{"steam", "steamservice", "steamwebhelper"}
	}
	return cfg, nil
}
