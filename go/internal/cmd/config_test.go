package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, config.InitialTime())
	assert.Equal(t, 2*time.Minute, config.WaveClearBonus())
	assert.Equal(t, time.Second, config.TickPoll())
	assert.Equal(t, 5*time.Minute, config.IdentityCacheTTL())
}

func TestLoadConfigFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("game:\n  initial_time_ms: 30000\n  wave_clear_bonus_ms: 5000\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, config.InitialTime())
	assert.Equal(t, 5*time.Second, config.WaveClearBonus())
	// Unset keys still fall back to defaults.
	assert.Equal(t, time.Second, config.TickPoll())
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  initial_time_ms: 30000\n"), 0o644))

	t.Setenv("GAME_INITIAL_TIME_MS", "45000")
	t.Setenv("IDENTITY_CACHE_TTL_MS", "not-a-number")

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, config.InitialTime())
	// Unparseable overrides are ignored.
	assert.Equal(t, 5*time.Minute, config.IdentityCacheTTL())
}
