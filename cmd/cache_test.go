package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gnis-cli/internal/config"
)

func TestCacheCmd_Metadata(t *testing.T) {
	assert.Equal(t, "cache", cacheCmd.Use)

	names := map[string]bool{}
	for _, c := range cacheCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["info"])
	assert.True(t, names["clear"])
}

func TestCacheClearCmd_InvalidLocation(t *testing.T) {
	cfg = &config.Config{Cache: config.CacheConfig{Dir: t.TempDir()}}

	err := cacheClearCmd.RunE(cacheClearCmd, []string{"ZZ"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown location "ZZ"`)
}

func TestCacheClearCmd_SingleKey(t *testing.T) {
	dir := t.TempDir()
	cfg = &config.Config{Cache: config.CacheConfig{Dir: dir}}

	co := filepath.Join(dir, "Gazetteer_CO_GPKG.gpkg")
	ca := filepath.Join(dir, "Gazetteer_CA_GPKG.gpkg")
	require.NoError(t, os.WriteFile(co, []byte("colorado"), 0o644))
	require.NoError(t, os.WriteFile(ca, []byte("california"), 0o644))

	require.NoError(t, cacheClearCmd.RunE(cacheClearCmd, []string{"co"}))

	assert.NoFileExists(t, co)
	assert.FileExists(t, ca)
}

func TestCacheClearCmd_All(t *testing.T) {
	dir := t.TempDir()
	cfg = &config.Config{Cache: config.CacheConfig{Dir: dir}}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Gazetteer_CO_GPKG.gpkg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Gazetteer_National_GPKG.gpkg"), []byte("y"), 0o644))

	require.NoError(t, cacheClearCmd.RunE(cacheClearCmd, nil))

	info, err := newCacheStore().Info()
	require.NoError(t, err)
	assert.Empty(t, info.Entries)
}

func TestCacheInfoCmd_EmptyDir(t *testing.T) {
	cfg = &config.Config{Cache: config.CacheConfig{Dir: t.TempDir()}}
	require.NoError(t, cacheInfoCmd.RunE(cacheInfoCmd, nil))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KiB", formatBytes(1024))
	assert.Equal(t, "1.5 MiB", formatBytes(1536*1024))
	assert.Equal(t, "2.0 GiB", formatBytes(2<<30))
}
