package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabasePath(t *testing.T) {
	cfg := Config{DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "notekeep.db"), cfg.DatabasePath())

	cfg.SQLitePath = "/elsewhere/custom.db"
	assert.Equal(t, "/elsewhere/custom.db", cfg.DatabasePath())
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	v, err := InitViper(dir)
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Empty(t, cfg.SQLitePath)
	assert.False(t, cfg.Fallback)
	assert.False(t, cfg.Debug)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "fallback = true\ndebug = true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))

	v, err := InitViper(dir)
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.True(t, cfg.Fallback)
	assert.True(t, cfg.Debug)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("NOTEKEEP_DEBUG", "true")

	v, err := InitViper(t.TempDir())
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}
