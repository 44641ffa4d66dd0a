// Package config handles loading and saving omnibar configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/omnibar/config.yaml
//   - State:   ~/.local/state/omnibar/ (query history database)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const appName = "omnibar"

// Environment overrides, applied between the config file and CLI flags.
const (
	EnvUser    = "OMNIBAR_USER"
	EnvCatalog = "OMNIBAR_CATALOG" // os.PathListSeparator separated
)

// UIConfig holds UI preference settings.
type UIConfig struct {
	MaxSuggestions int    `yaml:"max_suggestions,omitempty"` // dropdown size
	BlurDelayMs    int    `yaml:"blur_delay_ms,omitempty"`   // dropdown hide delay after Esc
	DefaultQuery   string `yaml:"default_query,omitempty"`   // committed on startup
}

// Config is the top-level configuration for omnibar.
type Config struct {
	User        string   `yaml:"user,omitempty"`     // expands creator:@me
	Catalogs    []string `yaml:"catalogs,omitempty"` // JSONL files, SQLite databases or directories
	HistoryPath string   `yaml:"history_path,omitempty"`
	Watch       *bool    `yaml:"watch,omitempty"`
	UI          UIConfig `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			MaxSuggestions: 10,
			BlurDelayMs:    150,
		},
	}
}

// WatchEnabled reports whether catalog files should be watched. Unset means
// yes.
func (c Config) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// ResolvedHistoryPath returns HistoryPath, or history.db in the state
// directory when unset.
func (c Config) ResolvedHistoryPath() string {
	if c.HistoryPath != "" {
		return expandHome(c.HistoryPath)
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "history.db")
}

// ConfigDir returns the XDG config directory for omnibar.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory for omnibar.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory and applies the
// environment overrides. Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()
	if path := ConfigPath(); path != "" {
		var err error
		cfg, err = LoadFrom(path)
		if err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
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

	defaults := DefaultConfig()
	if cfg.UI.MaxSuggestions <= 0 {
		cfg.UI.MaxSuggestions = defaults.UI.MaxSuggestions
	}
	if cfg.UI.BlurDelayMs < 0 {
		cfg.UI.BlurDelayMs = defaults.UI.BlurDelayMs
	}

	for i := range cfg.Catalogs {
		cfg.Catalogs[i] = expandHome(cfg.Catalogs[i])
	}
	cfg.HistoryPath = expandHome(cfg.HistoryPath)

	return cfg, nil
}

// ApplyEnv overlays OMNIBAR_USER and OMNIBAR_CATALOG onto c.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if user := strings.TrimSpace(getenv(EnvUser)); user != "" {
		c.User = user
	}
	if list := getenv(EnvCatalog); list != "" {
		var catalogs []string
		for _, p := range filepath.SplitList(list) {
			if p = strings.TrimSpace(p); p != "" {
				catalogs = append(catalogs, expandHome(p))
			}
		}
		if len(catalogs) > 0 {
			c.Catalogs = catalogs
		}
	}
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
