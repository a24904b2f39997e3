// Package config holds the notebook configuration: where the pages
// live, where the index database goes, and how the background checker
// paces itself.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Config struct {
	// Root is the notebook directory holding the page files.
	Root string `json:"root"`
	// DBPath is the index database file. Relative paths are taken
	// relative to Root; keep the default dot-prefixed name so the
	// database stays invisible to the crawl.
	DBPath string `json:"db_path"`
	// CheckIntervalSeconds paces the periodic background check.
	CheckIntervalSeconds int `json:"check_interval_seconds"`
}

var defaultConfig = Config{
	Root:                 ".",
	DBPath:               ".leaflet.db",
	CheckIntervalSeconds: 300,
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig
}

// FromJSON reads a config from r; fields absent in the JSON keep their
// defaults.
func FromJSON(r io.Reader) (Config, error) {
	cfg := defaultConfig

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// FromFile loads a config file; a missing file yields the defaults.
func FromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return defaultConfig, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()
	return FromJSON(f)
}

// DatabasePath resolves DBPath against Root.
func (c Config) DatabasePath() string {
	if filepath.IsAbs(c.DBPath) {
		return c.DBPath
	}
	return filepath.Join(c.Root, c.DBPath)
}
