package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
db: /tmp/a.db
user: alice
excluded_namespaces:
  - example.org/hidden/**
read_only: true
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/a.db", cfg.DBPath)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, []string{"example.org/hidden/**"}, cfg.ExcludedNamespaces)
	assert.True(t, cfg.ReadOnly)
}

func TestLoadFile_BlankUserFallsBack(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "user: '  '\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultUser, cfg.User)
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "db: [unclosed\n"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "db: /tmp/file.db\nuser: alice\n")
	t.Setenv("ANNOTATOR_CONFIG", path)
	t.Setenv("ANNOTATOR_DB", "/tmp/env.db")
	t.Setenv("ANNOTATOR_USER", "")
	t.Setenv("ANNOTATOR_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	t.Setenv("ANNOTATOR_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("ANNOTATOR_CONFIG", "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANNOTATOR_DB", "")
	t.Setenv("ANNOTATOR_USER", "")
	t.Setenv("ANNOTATOR_LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultUser, cfg.User)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}
