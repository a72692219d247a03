// Package config loads hotcache settings and turns them into store options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"hotcache/internal/artifacts"
	"hotcache/internal/detect"
	"hotcache/internal/store"
)

const (
	DetectorPoll   = "poll"
	DetectorNotify = "notify"
)

// ConfigDir returns the configuration directory path.
// Uses HOTCACHE_CONFIG_DIR if set, otherwise defaults to ~/.hotcache.
// Computed on every call so tests can isolate it.
func ConfigDir() string {
	if dir := os.Getenv("HOTCACHE_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hotcache")
}

// SettingsPath returns the settings file path
func SettingsPath() string {
	return filepath.Join(ConfigDir(), "settings.yaml")
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0700)
}

// InitConfigDir creates the config directory and writes the default settings
// file unless one exists. It reports whether a file was written.
func InitConfigDir() (bool, error) {
	if err := EnsureConfigDir(); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	path := SettingsPath()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return false, err
	}
	if err := os.WriteFile(path, artifacts.GlobalSettings, 0600); err != nil {
		return false, fmt.Errorf("failed to create default settings: %w", err)
	}
	return true, nil
}

// Settings is the content of settings.yaml.
type Settings struct {
	Roots          []string `yaml:"roots"`
	Detector       string   `yaml:"detector"`        // poll or notify (default: poll)
	UpdateDelayMs  int      `yaml:"update_delay_ms"` // poll detector debounce
	Excludes       []string `yaml:"excludes"`
	LockReads      bool     `yaml:"lock_reads"`
	ReloadAttempts uint     `yaml:"reload_attempts"` // default: 1
	ReloadDelayMs  int      `yaml:"reload_delay_ms"` // default: 50
	TickMs         int      `yaml:"tick_ms"`         // default: 250
	LogLevel       string   `yaml:"log_level"`       // trace, debug, info, warn, none
	Discovery      []string `yaml:"discovery"`
}

// ApplyDefaults fills zero-value fields with their defaults.
func (s *Settings) ApplyDefaults() {
	s.Detector = strings.ToLower(strings.TrimSpace(s.Detector))
	if s.Detector == "" {
		s.Detector = DetectorPoll
	}
	if s.ReloadAttempts == 0 {
		s.ReloadAttempts = 1
	}
	if s.ReloadDelayMs <= 0 {
		s.ReloadDelayMs = 50
	}
	if s.TickMs <= 0 {
		s.TickMs = 250
	}
	if s.LogLevel == "" {
		s.LogLevel = "none"
	}
	if s.UpdateDelayMs < 0 {
		s.UpdateDelayMs = 0
	}
}

// Validate rejects settings that cannot be turned into store options.
func (s *Settings) Validate() error {
	switch s.Detector {
	case DetectorPoll, DetectorNotify:
	default:
		return fmt.Errorf("unknown detector %q (want %s or %s)", s.Detector, DetectorPoll, DetectorNotify)
	}
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// Tick returns the sync interval.
func (s *Settings) Tick() time.Duration {
	return time.Duration(s.TickMs) * time.Millisecond
}

// DefaultSettings parses the embedded default settings.
func DefaultSettings() Settings {
	var settings Settings
	if err := yaml.Unmarshal(artifacts.GlobalSettings, &settings); err != nil {
		panic("failed to parse embedded settings: " + err.Error())
	}
	settings.ApplyDefaults()
	return settings
}

// LoadSettings loads ~/.hotcache/settings.yaml, falling back to the embedded
// defaults if the file doesn't exist.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFromPath(SettingsPath())
}

// LoadSettingsFromPath loads settings from a specific file. A missing file
// yields the embedded defaults.
func LoadSettingsFromPath(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			settings := DefaultSettings()
			return &settings, nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return &settings, nil
}

// SaveSettings writes settings to ~/.hotcache/settings.yaml
func SaveSettings(settings *Settings) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	header := []byte("# hotcache settings\n# See: hotcache settings --help\n\n")
	return os.WriteFile(SettingsPath(), append(header, data...), 0600)
}

// StoreOptions builds store options from settings. found, when non-nil, is
// wired to discovery for the configured patterns. The caller owns the
// returned detector through the store's Close.
func StoreOptions[C any](s *Settings, found func(*store.Store[C], store.Key, C)) (store.Options[C], error) {
	opts := store.Options[C]{
		Roots:          s.Roots,
		UpdateDelay:    time.Duration(s.UpdateDelayMs) * time.Millisecond,
		Excludes:       s.Excludes,
		LockReads:      s.LockReads,
		ReloadAttempts: s.ReloadAttempts,
		ReloadDelay:    time.Duration(s.ReloadDelayMs) * time.Millisecond,
	}

	switch s.Detector {
	case DetectorNotify:
		d, err := detect.NewNotifyDetector()
		if err != nil {
			return store.Options[C]{}, fmt.Errorf("failed to start notify detector: %w", err)
		}
		opts.Detector = d
	case DetectorPoll, "":
	default:
		return store.Options[C]{}, fmt.Errorf("unknown detector %q", s.Detector)
	}

	if found != nil && len(s.Discovery) > 0 {
		opts.Discovery = &store.Discovery[C]{Patterns: s.Discovery, Found: found}
	}
	return opts, nil
}
