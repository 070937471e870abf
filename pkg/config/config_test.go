package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFileOnDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "moorcore.yaml")
	err := os.WriteFile(path, []byte("dataDir: /var/lib/moorcore\nscheduler:\n  retryLimit: 7\n"), 0o644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/moorcore", cfg.DataDir)
	assert.Equal(t, 7, cfg.Scheduler.RetryLimit)
	assert.Equal(t, Default().Metrics.ListenAddr, cfg.Metrics.ListenAddr)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
