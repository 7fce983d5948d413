package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_DefaultsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.RootDir)
	assert.Equal(t, int64(1048576), cfg.MaxFileSize)
	assert.True(t, cfg.ExtractDocstrings)
	assert.False(t, cfg.EnableEmbeddings)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)
	cfg.MaxFileSize = 2048

	require.NoError(t, Save(dir, cfg))
	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), loaded.MaxFileSize)
}

func TestLoad_FallsBackToYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(CodegraphDir(dir), 0o755))

	cfg := Default(dir)
	cfg.MaxFileSize = 4096
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(CodegraphDir(dir), yamlConfigName), data, 0o644))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), loaded.MaxFileSize)
}

func TestShouldIncludeFile_ExcludeWinsOverInclude(t *testing.T) {
	cfg := Default("/project")
	assert.True(t, cfg.ShouldIncludeFile("internal/model/types.go"))
	assert.False(t, cfg.ShouldIncludeFile("vendor/pkg/thing.go"))
	assert.False(t, cfg.ShouldIncludeFile("node_modules/lib/index.go"))
	assert.False(t, cfg.ShouldIncludeFile("readme.md"))
}
