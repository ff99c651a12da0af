package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFileOrEnv(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-20241022", cfg.Model)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, "memories", cfg.TableName())
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("namespace: staging\nmodel: custom-model\ndefault_limit: 10\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Namespace)
	assert.Equal(t, "custom-model", cfg.Model)
	assert.Equal(t, 10, cfg.DefaultLimit)
	assert.Equal(t, "memories_staging", cfg.TableName())
}

func TestLoad_EnvOverridesSocketAndDBPath(t *testing.T) {
	t.Setenv("FERRIDYN_MEMORY_SOCKET", "/tmp/custom.sock")
	t.Setenv("FERRIDYN_MEMORY_DB", "/tmp/custom.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.sock", cfg.SocketPath)
	assert.Equal(t, "/tmp/custom.db", cfg.DBPath)
}

func TestLoad_MissingExplicitConfigFile_IsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.NoError(t, err)
}

func TestTableName_EmptyNamespace(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "memories", cfg.TableName())
}

func TestTableName_WithNamespace(t *testing.T) {
	cfg := &Config{Namespace: "dev"}
	assert.Equal(t, "memories_dev", cfg.TableName())
}
