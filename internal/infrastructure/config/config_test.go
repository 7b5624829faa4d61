package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelengine/assetpipe/internal/domain/asset"
	"github.com/kestrelengine/assetpipe/internal/infrastructure/config"
)

func TestLoadConfig_DefaultsApplyWithoutAFile(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	// A named-but-missing file is an error; the default search path is not.
	require.Error(t, err)

	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	require.NoError(t, os.Chdir(t.TempDir()))

	cfg, err = config.LoadConfig("")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cfg.Workers.Count, 1)
	assert.NotEmpty(t, cfg.Shaders.CachePath)
	assert.NotEmpty(t, cfg.Shaders.SourceRoot)
	assert.NotEmpty(t, cfg.Daemon.PIDFile)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assetpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers:
  count: 7
paks:
  fs_roots: ["/data/paks"]
shaders:
  cache_path: /tmp/shaders.bin
`), 0o644))

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers.Count)
	assert.Equal(t, []string{"/data/paks"}, cfg.Paks.FSRoots)
	assert.Equal(t, "/tmp/shaders.bin", cfg.Shaders.CachePath)
}

func TestValidateConfig_RejectsNegativeQPS(t *testing.T) {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	cfg.Paks.IOQPS = -1

	err := config.ValidateConfig(cfg)

	require.Error(t, err)
	assert.Equal(t, asset.StatusCodeInvalidParameter, asset.CodeOf(err))
	assert.Contains(t, err.Error(), "IOQPS")
}
