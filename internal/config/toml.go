// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	DefaultProfile *string         `toml:"default-profile"`
	SoundsEnabled  *bool           `toml:"sounds-enabled"`
	OpacityFloor   *float64        `toml:"opacity-floor"`
	SessionMinutes *float64        `toml:"session-minutes"`
	Search         []string        `toml:"search"`
	Log            LogConfig       `toml:"log"`
	Profiles       []ProfileConfig `toml:"profile"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level   *string `toml:"level"`
	File    *string `toml:"file"`
	Console *bool   `toml:"console"`
}

// ProfileConfig maps one [[profile]] table.
type ProfileConfig struct {
	Name       string       `toml:"name"`
	Domains    []string     `toml:"domains"`
	LoreRegex  string       `toml:"lore-regex,omitempty"`
	Color      string       `toml:"color,omitempty"`
	ColorStack string       `toml:"color-stack,omitempty"`
	Sound      string       `toml:"sound,omitempty"`
	SoundBulk  string       `toml:"sound-bulk,omitempty"`
	Rules      []RuleConfig `toml:"rule"`
}

// RuleConfig maps one [[profile.rule]] table. Key holds the legacy pipe-joined form
// and is migrated to Item on load.
type RuleConfig struct {
	Item     string `toml:"item,omitempty"`
	Key      string `toml:"key,omitempty"`
	MaxPrice string `toml:"max-price"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg atomically via a temporary file in the same directory.
func SaveConfig(path string, cfg FileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "config-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := toml.NewEncoder(tmpFile).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
