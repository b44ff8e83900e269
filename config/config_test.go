package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadKeepsDefaultsForMissingFields(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := ConfigPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"playback":{"tempo":60}}`), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60.0, cfg.Playback.Tempo)
	assert.Equal(t, 4.0, cfg.Playback.UnitSeconds())
	assert.Equal(t, 45, cfg.Conversation.QueryTimeoutSec)
	assert.Equal(t, "Analyze what I just played.", cfg.Conversation.FallbackQuery)

	cfg.Assistant.Model = "gpt-4o-mini"
	require.NoError(t, cfg.Save())

	again, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", again.Assistant.Model)
}

func TestLoadFromRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestApplyEnvKeepsSecretsOutOfFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SENTRY_DSN", "https://dsn.example/1")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "g-key", cfg.Assistant.GeminiAPIKey)
	assert.Empty(t, cfg.Assistant.OpenAIAPIKey)
	assert.Equal(t, "https://dsn.example/1", cfg.SentryDSN)

	path := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, cfg.SaveTo(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "g-key")
}

func TestDefaultTimings(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2.0, cfg.Playback.UnitSeconds())
	assert.Equal(t, 300*time.Millisecond, cfg.Playback.Debounce())
	assert.Equal(t, 100*time.Millisecond, cfg.Playback.ReleaseOffset())
	assert.Equal(t, 5*time.Minute, cfg.Buffer.Window())
	assert.Equal(t, 3*time.Minute, cfg.Buffer.Idle())
	assert.Equal(t, 45*time.Second, cfg.Conversation.QueryTimeout())
}

func TestAddController(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AddController(ControllerConfig{PortName: "Launchpad X LPX MIDI", Type: ControllerLaunchpadX, AutoConnect: true, BaseNote: 36})
	require.Len(t, cfg.Controllers, 1)
	assert.Equal(t, 36, cfg.FindController("Launchpad X LPX MIDI").BaseNote)

	cfg.AddController(ControllerConfig{PortName: "Keystation", Type: ControllerKeyboard})
	assert.Len(t, cfg.AutoConnectControllers(), 1)
	assert.Nil(t, cfg.FindController("nope"))
}
