package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
volume:
  directory: /tmp/dos-volume
source:
  baseURL: https://example.com/bundle
  cacheTTL: 2m
  ratePerSecond: 10
  burst: 5
ssh:
  address: ":2222"
console:
  prompt: ">"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/dos-volume", cfg.Volume.Directory)
	assert.Equal(t, "https://example.com/bundle", cfg.Source.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Source.CacheTTL)
	assert.Equal(t, float64(10), cfg.Source.RatePerSecond)
	assert.Equal(t, 5, cfg.Source.Burst)
	assert.Equal(t, ":2222", cfg.SSH.Address)
	assert.Equal(t, ">", cfg.Console.Prompt)
}

func TestLoadConfig_DefaultsFillGaps(t *testing.T) {
	path := writeConfig(t, `volume: {}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":2323", cfg.SSH.Address)
	assert.Equal(t, "]", cfg.Console.Prompt)
	assert.Empty(t, cfg.Volume.Directory)
	assert.Empty(t, cfg.Source.BaseURL)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, ErrConfigFileUnreadable)
	})

	t.Run("Malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "volume: [not: valid")
		_, err := LoadConfig(path)
		assert.ErrorIs(t, err, ErrConfigFileUnmarshallable)
	})

	t.Run("Negative rate", func(t *testing.T) {
		path := writeConfig(t, "source:\n  ratePerSecond: -1\n")
		_, err := LoadConfig(path)
		assert.ErrorIs(t, err, ErrNegativeSourceRate)
	})
}

func TestEnsureHostKey(t *testing.T) {
	home := t.TempDir()
	cfg := Default()

	keyPath, err := cfg.EnsureHostKey(home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "ssh", "host_key"), keyPath)

	data, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "PRIVATE KEY")

	// a second call reuses the existing key
	again, err := cfg.EnsureHostKey(home)
	require.NoError(t, err)
	assert.Equal(t, keyPath, again)

	reread, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	assert.Equal(t, data, reread)
}

func TestEnsureHostKey_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.SSH.HostKeyPath = filepath.Join(dir, "custom_key")

	keyPath, err := cfg.EnsureHostKey(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.SSH.HostKeyPath, keyPath)
}
