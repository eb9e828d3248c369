// Package file implements the TOML config store holding run defaults.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the persisted defaults. Command-line flags override these;
// these override the built-in defaults.
type Config struct {
	// Token is the personal access token used when --token is not given.
	Token string `toml:"token,omitempty"`

	// Output is the output file path used when --output is not given.
	Output string `toml:"output,omitempty"`
}

// DefaultPath returns the default config file location,
// ~/.repocensus/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".repocensus", "config.toml"), nil
}

// Load reads the config file at path. A missing file is not an error: it
// yields the zero config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config file at path, creating the directory if needed.
// The file is written 0600 since it may hold a token.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
