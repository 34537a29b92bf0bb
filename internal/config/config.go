// Package config loads and persists the engine configuration as a
// YAML file under ~/.config/clipvault.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clipvault/clipvault/internal/capture"
	"github.com/clipvault/clipvault/internal/retention"
)

// IgnoreEntry mirrors capture.IgnoreEntry in YAML form.
type IgnoreEntry struct {
	BundleID string `yaml:"bundle_id,omitempty"`
	Path     string `yaml:"path,omitempty"`
}

// Config is the clipvault configuration.
type Config struct {
	// DBPath overrides the history database location.
	DBPath string `yaml:"db_path,omitempty"`

	// PollIntervalMS is the capture poll period in milliseconds.
	PollIntervalMS int `yaml:"poll_interval_ms"`

	// PageSize is the history window page length.
	PageSize int `yaml:"page_size"`

	// MaxItemSizeKB caps a single captured payload.
	MaxItemSizeKB int `yaml:"max_item_size_kb"`

	// IgnoreSensitive skips captures advertising password-manager
	// markers.
	IgnoreSensitive bool `yaml:"ignore_sensitive"`

	// IgnoreApps lists applications whose copies are never captured.
	IgnoreApps []IgnoreEntry `yaml:"ignore_apps,omitempty"`

	// Retention is the expiry window for unassigned history.
	Retention retention.Unit `yaml:"retention"`

	// LogLevel and LogPretty configure the logger.
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		PollIntervalMS:  1000,
		PageSize:        50,
		MaxItemSizeKB:   10 * 1024,
		IgnoreSensitive: true,
		Retention:       retention.Forever(),
		LogLevel:        "info",
	}
}

// PollInterval returns the poll period as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// IgnoreList converts the configured entries to the capture form.
func (c *Config) IgnoreList() capture.StaticIgnoreList {
	entries := make(capture.StaticIgnoreList, len(c.IgnoreApps))
	for i, e := range c.IgnoreApps {
		entries[i] = capture.IgnoreEntry{BundleID: e.BundleID, Path: e.Path}
	}
	return entries
}

// Manager handles configuration persistence.
type Manager struct {
	configPath string
}

// NewManager creates a manager over the default config path.
func NewManager() (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return &Manager{
		configPath: filepath.Join(homeDir, ".config", "clipvault", "config.yaml"),
	}, nil
}

// NewManagerWithPath creates a manager over a custom config path.
func NewManagerWithPath(configPath string) *Manager {
	return &Manager{configPath: configPath}
}

// Load reads the configuration, or returns the default when the file
// doesn't exist.
func (m *Manager) Load() (*Config, error) {
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Save writes the configuration to file.
func (m *Manager) Save(config *Config) error {
	if err := validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigPath returns the path to the config file.
func (m *Manager) ConfigPath() string {
	return m.configPath
}

func validate(config *Config) error {
	if config.PollIntervalMS < 100 {
		return fmt.Errorf("poll_interval_ms must be at least 100")
	}
	if config.PageSize <= 0 || config.PageSize > 500 {
		return fmt.Errorf("page_size must be between 1 and 500")
	}
	if config.MaxItemSizeKB <= 0 {
		return fmt.Errorf("max_item_size_kb must be greater than 0")
	}
	if err := config.Retention.Validate(); err != nil {
		return err
	}
	return nil
}
