package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotcache/internal/detect"
	"hotcache/internal/store"
)

func TestConfigDir(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("HOTCACHE_CONFIG_DIR", "")
		dir := ConfigDir()
		assert.NotEmpty(t, dir)
		assert.True(t, strings.HasSuffix(dir, ".hotcache"), "should end with .hotcache")
	})

	t.Run("override with HOTCACHE_CONFIG_DIR", func(t *testing.T) {
		t.Setenv("HOTCACHE_CONFIG_DIR", "/tmp/test-hotcache-config")
		assert.Equal(t, "/tmp/test-hotcache-config", ConfigDir())
		assert.Equal(t, "/tmp/test-hotcache-config/settings.yaml", SettingsPath())
	})
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, DetectorPoll, s.Detector)
	assert.Equal(t, uint(1), s.ReloadAttempts)
	assert.Equal(t, 50, s.ReloadDelayMs)
	assert.Equal(t, 250*time.Millisecond, s.Tick())
	assert.Equal(t, "none", s.LogLevel)
	assert.Equal(t, []string{".git/"}, s.Excludes)
	assert.Empty(t, s.Roots)
	require.NoError(t, s.Validate())
}

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOTCACHE_CONFIG_DIR", t.TempDir())

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), *s)
}

func TestLoadSettingsFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
roots: [assets, shaders]
detector: Notify
reload_attempts: 3
tick_ms: 100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := LoadSettingsFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"assets", "shaders"}, s.Roots)
	assert.Equal(t, DetectorNotify, s.Detector, "detector name is case insensitive")
	assert.Equal(t, uint(3), s.ReloadAttempts)
	assert.Equal(t, 100*time.Millisecond, s.Tick())
	assert.Equal(t, 50, s.ReloadDelayMs, "unset fields keep defaults")
	assert.Equal(t, []string{".git/"}, s.Excludes)
}

func TestLoadSettingsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown detector", "detector: inotify\n"},
		{"unknown log level", "log_level: chatty\n"},
		{"bad yaml", "roots: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			_, err := LoadSettingsFromPath(path)
			assert.Error(t, err)
		})
	}
}

func TestInitAndSaveSettings(t *testing.T) {
	t.Setenv("HOTCACHE_CONFIG_DIR", filepath.Join(t.TempDir(), "cfg"))

	created, err := InitConfigDir()
	require.NoError(t, err)
	assert.True(t, created)

	created, err = InitConfigDir()
	require.NoError(t, err)
	assert.False(t, created, "existing settings are kept")

	s, err := LoadSettings()
	require.NoError(t, err)
	s.LockReads = true
	s.Roots = []string{"/srv/assets"}
	require.NoError(t, SaveSettings(s))

	loaded, err := LoadSettings()
	require.NoError(t, err)
	assert.True(t, loaded.LockReads)
	assert.Equal(t, []string{"/srv/assets"}, loaded.Roots)

	data, err := os.ReadFile(SettingsPath())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# hotcache settings"))
}

func TestStoreOptions(t *testing.T) {
	s := DefaultSettings()
	s.Roots = []string{"/a", "/b"}
	s.UpdateDelayMs = 20
	s.Discovery = []string{"*.yaml"}

	opts, err := StoreOptions[struct{}](&s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, opts.Roots)
	assert.Equal(t, 20*time.Millisecond, opts.UpdateDelay)
	assert.Equal(t, 50*time.Millisecond, opts.ReloadDelay)
	assert.Nil(t, opts.Detector, "poll detector is created by the store")
	assert.Nil(t, opts.Discovery, "discovery needs a callback")

	s.Detector = DetectorNotify
	opts, err = StoreOptions[struct{}](&s, func(*store.Store[struct{}], store.Key, struct{}) {})
	require.NoError(t, err)
	require.IsType(t, &detect.NotifyDetector{}, opts.Detector)
	require.NotNil(t, opts.Discovery)
	assert.Equal(t, []string{"*.yaml"}, opts.Discovery.Patterns)
	require.NoError(t, opts.Detector.Close())
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)
	defer logrus.SetLevel(logrus.GetLevel())

	var buf bytes.Buffer
	require.NoError(t, SetupLogging("DEBUG", &buf))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	logrus.Debug("visible")
	assert.Contains(t, buf.String(), "visible")

	buf.Reset()
	require.NoError(t, SetupLogging("none", &buf))
	logrus.Warn("hidden")
	assert.Empty(t, buf.String())

	assert.Error(t, SetupLogging("loud", &buf))
}
