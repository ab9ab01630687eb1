// Package project persists settings, policy profiles and observation
// snapshots to disk.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/piwi3910/CutStock/internal/env"
	"github.com/piwi3910/CutStock/internal/model"
)

// Config is the on-disk configuration: the policy settings and the
// episode generator parameters.
type Config struct {
	Policy model.Settings `json:"policy" toml:"policy"`
	Env    env.Config     `json:"env" toml:"env"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{Policy: model.DefaultSettings(), Env: env.DefaultConfig()}
}

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.cutstock/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cutstock")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// SaveConfig writes config to path, as TOML for a .toml extension and as
// indented JSON otherwise. Missing parent directories are created.
func SaveConfig(path string, config Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = json.MarshalIndent(config, "", "  "); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// LoadConfig reads the configuration at path. Fields absent from the file
// keep their defaults. If the file does not exist, DefaultConfig is
// returned with no error.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return Config{}, err
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), &config); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return config, nil
}
