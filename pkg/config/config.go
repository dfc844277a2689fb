// Package config handles loading and saving warren configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/warren/config.yaml
//   - Data:    ~/.local/share/warren/ (profile database)
//   - State:   ~/.local/state/warren/ (expansion state cache, debug log)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// UIConfig holds UI preference settings.
type UIConfig struct {
	Theme    string `yaml:"theme,omitempty"`    // dark, light
	Headless bool   `yaml:"headless,omitempty"` // Compact header mode
}

// BrowseConfig tunes the tree browser.
type BrowseConfig struct {
	SearchDebounceMs int   `yaml:"search_debounce_ms,omitempty"` // Pause before a search runs
	ScanBatchSize    int   `yaml:"scan_batch_size,omitempty"`    // Keys per load-more page
	ConfirmSwitch    *bool `yaml:"confirm_switch,omitempty"`     // Ask before switching connections
}

// StorageConfig locates the local databases warren keeps.
type StorageConfig struct {
	ProfileDB string `yaml:"profile_db,omitempty"` // Path to profiles.sqlite3
}

// Config is the top-level configuration for warren.
type Config struct {
	UI      UIConfig      `yaml:"ui,omitempty"`
	Browse  BrowseConfig  `yaml:"browse,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			Theme: "dark",
		},
		Browse: BrowseConfig{
			SearchDebounceMs: 350,
			ScanBatchSize:    100,
		},
	}
}

// ConfirmSwitch reports whether switching connections asks first. Defaults
// to true when the config is silent.
func (c Config) ConfirmSwitch() bool {
	if c.Browse.ConfirmSwitch == nil {
		return true
	}
	return *c.Browse.ConfirmSwitch
}

// ProfileDBPath returns the configured profile database path, falling back
// to the XDG data directory.
func (c Config) ProfileDBPath() string {
	if c.Storage.ProfileDB != "" {
		return expandHome(c.Storage.ProfileDB)
	}
	dir := DataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "profiles.sqlite3")
}

// ConfigDir returns the XDG config directory for warren.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "warren")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "warren")
}

// DataDir returns the XDG data directory for warren.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "warren")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "warren")
}

// StateDir returns the XDG state directory for warren.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "warren")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "warren")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Browse.SearchDebounceMs <= 0 {
		cfg.Browse.SearchDebounceMs = 350
	}
	if cfg.Browse.ScanBatchSize <= 0 {
		cfg.Browse.ScanBatchSize = 100
	}
	cfg.Storage.ProfileDB = expandHome(cfg.Storage.ProfileDB)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
