// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/localbox/internal/domain/library"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Library  LibraryConfig           `yaml:"library"`
	Playback PlaybackConfig          `yaml:"playback"`
	Engine   EngineConfig            `yaml:"engine"`
	Filters  map[string]FilterConfig `yaml:"filters"`
	Storage  StorageConfig           `yaml:"storage"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr       string      `yaml:"addr" default:":8080"`
	AdminToken string      `yaml:"admin_token"` // Empty disables the token check
	Hooks      HooksConfig `yaml:"hooks"`
}

// HooksConfig holds shell commands run around the server lifecycle.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// LibraryConfig represents library configuration.
type LibraryConfig struct {
	Folders         []string `yaml:"folders"` // Seeded into the preference store on first run
	DefaultSort     string   `yaml:"default_sort" default:"TITLE"`
	Watch           bool     `yaml:"watch"`
	WatchDebounceMs int      `yaml:"watch_debounce_ms" default:"2000" validate:"gte=100,lte=60000"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	PollIntervalMs     int `yaml:"poll_interval_ms" default:"1000" validate:"gte=50,lte=10000"`
	SeekStepMs         int `yaml:"seek_step_ms" default:"10000" validate:"gt=0,lte=600000"`
	RestartThresholdMs int `yaml:"restart_threshold_ms" default:"3000" validate:"gte=0,lte=60000"`
}

// EngineConfig selects the player engine.
type EngineConfig struct {
	Type     string         `yaml:"type" default:"beep" validate:"required"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// StorageConfig represents preference storage configuration.
type StorageConfig struct {
	DBPath string `yaml:"db_path" default:"localbox.db" validate:"required"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes, applying env overrides,
// defaults, and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	_ = defaults.Set(&cfg)
	return &cfg
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("LOCALBOX_ADMIN_TOKEN"); v != "" {
		c.Server.AdminToken = v
	}
	if v := os.Getenv("LOCALBOX_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if _, err := library.ParseSortKey(c.Library.DefaultSort); err != nil {
		return errors.Wrap(err, "invalid library.default_sort")
	}
	return nil
}

// DefaultSortKey returns the sort key used until the user picks one.
func (c *Config) DefaultSortKey() library.SortKey {
	key, err := library.ParseSortKey(c.Library.DefaultSort)
	if err != nil {
		return library.SortNone
	}
	return key
}

// PollInterval returns the position poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Playback.PollIntervalMs) * time.Millisecond
}

// WatchDebounce returns the folder watcher debounce period.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Library.WatchDebounceMs) * time.Millisecond
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// EnabledFilters returns the names of enabled filters in sorted order.
func (c *Config) EnabledFilters() []string {
	names := make([]string, 0, len(c.Filters))
	for name, f := range c.Filters {
		if f.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
