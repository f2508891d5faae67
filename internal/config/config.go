// Package config reads and writes the local driftsync configuration file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const configFile = ".driftsync/config.json"

// Defaults applied when the config file is absent or a field is zero.
const (
	DefaultUndoWindowHours  = 24
	DefaultLiveUndoCap      = 50
	DefaultRetentionDays    = 30
	DefaultDriftThreshold   = 5
	DefaultSnapshotFileName = "snapshots.json"
)

// Config is the local configuration state
type Config struct {
	UndoWindowHours  int      `json:"undo_window_hours,omitempty"`
	LiveUndoCap      int      `json:"live_undo_cap,omitempty"`
	RetentionDays    int      `json:"retention_days,omitempty"`
	DriftThreshold   int      `json:"drift_threshold,omitempty"`
	IgnoreKeys       []string `json:"ignore_keys,omitempty"`
	WhitespaceFields []string `json:"whitespace_fields,omitempty"`
	SnapshotFile     string   `json:"snapshot_file,omitempty"`
}

// UndoWindow returns the configured undo window as a duration
func (c *Config) UndoWindow() time.Duration {
	hours := c.UndoWindowHours
	if hours <= 0 {
		hours = DefaultUndoWindowHours
	}
	return time.Duration(hours) * time.Hour
}

// Cap returns the configured live undo entry cap
func (c *Config) Cap() int {
	if c.LiveUndoCap <= 0 {
		return DefaultLiveUndoCap
	}
	return c.LiveUndoCap
}

// Retention returns the configured retention window for expired entries
func (c *Config) Retention() time.Duration {
	days := c.RetentionDays
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// Threshold returns the configured drift severity threshold
func (c *Config) Threshold() int {
	if c.DriftThreshold <= 0 {
		return DefaultDriftThreshold
	}
	return c.DriftThreshold
}

// Load reads the config from disk
func Load(baseDir string) (*Config, error) {
	configPath := filepath.Join(baseDir, configFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to disk using atomic write (temp file + rename)
func Save(baseDir string, cfg *Config) error {
	configPath := filepath.Join(baseDir, configFile)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, configPath)
}
