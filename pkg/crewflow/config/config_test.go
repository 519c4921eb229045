package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfig_Accessors tests typed extraction with defaults.
func TestConfig_Accessors(t *testing.T) {
	cfg := New(map[string]any{
		"name":    "crewflow",
		"count":   3,
		"ratio":   0.5,
		"enabled": true,
		"timeout": "45s",
	})

	assert.Equal(t, "crewflow", cfg.String("name", "fallback"))
	assert.Equal(t, "fallback", cfg.String("missing", "fallback"))
	assert.Equal(t, 3, cfg.Int("count", 9))
	assert.Equal(t, 9, cfg.Int("missing", 9))
	assert.Equal(t, 0.5, cfg.Float("ratio", 1.0))
	assert.True(t, cfg.Bool("enabled", false))
	assert.Equal(t, 45*time.Second, cfg.Duration("timeout", time.Second))
	assert.True(t, cfg.Has("name"))
	assert.False(t, cfg.Has("missing"))
}

// TestConfig_TypeMismatch tests mismatched types fall back to defaults.
func TestConfig_TypeMismatch(t *testing.T) {
	cfg := New(map[string]any{
		"name":    42,
		"count":   "three",
		"enabled": "yes",
		"frac":    1.5,
	})

	assert.Equal(t, "d", cfg.String("name", "d"))
	assert.Equal(t, 7, cfg.Int("count", 7))
	assert.False(t, cfg.Bool("enabled", false))
	// Fractional floats never silently truncate.
	assert.Equal(t, 7, cfg.Int("frac", 7))
}

// TestConfig_DurationCoercion tests numeric seconds and native durations.
func TestConfig_DurationCoercion(t *testing.T) {
	cfg := New(map[string]any{
		"int_secs":   30,
		"float_secs": 1.5,
		"native":     2 * time.Minute,
		"garbage":    "soon",
	})

	assert.Equal(t, 30*time.Second, cfg.Duration("int_secs", 0))
	assert.Equal(t, 1500*time.Millisecond, cfg.Duration("float_secs", 0))
	assert.Equal(t, 2*time.Minute, cfg.Duration("native", 0))
	assert.Equal(t, time.Second, cfg.Duration("garbage", time.Second))
}

// TestConfig_NilMap tests a nil map behaves as empty.
func TestConfig_NilMap(t *testing.T) {
	cfg := New(nil)
	assert.Equal(t, "d", cfg.String("anything", "d"))
	assert.NotNil(t, cfg.Raw())
}

// TestFromYAML tests YAML parsing.
func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte("provider: cohere\nmax_hops: 10\nturn_timeout: 90s\n"))

	require.NoError(t, err)
	assert.Equal(t, "cohere", cfg.String("provider", ""))
	assert.Equal(t, 10, cfg.Int("max_hops", 0))
	assert.Equal(t, 90*time.Second, cfg.Duration("turn_timeout", 0))
}

// TestFromYAML_Invalid tests malformed YAML errors.
func TestFromYAML_Invalid(t *testing.T) {
	_, err := FromYAML([]byte("provider: [unclosed"))
	assert.Error(t, err)
}

// TestFromJSON tests JSON parsing.
func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"provider":"openai","event_buffer":64}`))

	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.String("provider", ""))
	assert.Equal(t, 64, cfg.Int("event_buffer", 0))
}

// TestFromFile tests extension-based dispatch.
func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("model: command-r-plus\n"), 0o644))
	cfg, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "command-r-plus", cfg.String("model", ""))

	txtPath := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	_, err = FromFile(txtPath)
	assert.Error(t, err)

	_, err = FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

// TestLoadSettings_Defaults tests an empty config yields defaults.
func TestLoadSettings_Defaults(t *testing.T) {
	settings := LoadSettings(New(nil))
	assert.Equal(t, DefaultSettings(), settings)
}

// TestLoadSettings_Overrides tests configured keys replace defaults.
func TestLoadSettings_Overrides(t *testing.T) {
	cfg := New(map[string]any{
		"provider":        "cohere",
		"model":           "command-r-plus",
		"max_hops":        10,
		"turn_timeout":    "2m",
		"checkpoint_path": "/tmp/snapshots.db",
		"event_buffer":    32,
	})

	settings := LoadSettings(cfg)

	assert.Equal(t, "cohere", settings.Provider)
	assert.Equal(t, "command-r-plus", settings.Model)
	assert.Equal(t, 10, settings.MaxHops)
	assert.Equal(t, 2*time.Minute, settings.TurnTimeout)
	assert.Equal(t, "/tmp/snapshots.db", settings.CheckpointPath)
	assert.Equal(t, 32, settings.EventBuffer)
}
