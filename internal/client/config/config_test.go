package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.APIBaseURL)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 5*time.Second, c.LogoutTimeout)
	assert.Equal(t, filepath.Join(".homefinder", "session.db"), c.DatabasePath())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg, err := LoadConfig(nil)

	require.NoError(t, err)
	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"api_base_url":   "http://json:1",
		"logout_timeout": "2s",
	})

	cfg, err := LoadConfig([]string{"-c", path, "-a", "http://flag:2"})

	require.NoError(t, err)
	assert.Equal(t, "http://flag:2", cfg.APIBaseURL)
	assert.Equal(t, 2*time.Second, cfg.LogoutTimeout)
}

func TestLoadConfig_ReportsErrors(t *testing.T) {
	_, err := LoadConfig([]string{"-config", filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)

	_, err = LoadConfig([]string{"-i", "abc"})
	require.Error(t, err)
}
