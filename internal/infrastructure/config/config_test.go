package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tecsitel", cfg.App.Name)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "F001", cfg.Invoicing.Series)
	assert.Equal(t, 18.0, cfg.Invoicing.DefaultIGVRate)
	assert.Equal(t, "PEN", cfg.Invoicing.Currency)
	assert.Equal(t, StorageBackendFile, cfg.Storage.Backend)
	assert.Equal(t, 30*time.Second, cfg.Storage.AutoSaveInterval)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[app]
env = "production"
port = "9090"

[invoicing]
series = "B001"
default_igv_rate = 10.0

[storage]
backend = "sqlite"
path = "tecsitel.db"
auto_save_interval = "5s"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "B001", cfg.Invoicing.Series)
	assert.Equal(t, 10.0, cfg.Invoicing.DefaultIGVRate)
	assert.Equal(t, StorageBackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, 5*time.Second, cfg.Storage.AutoSaveInterval)
	// Untouched settings keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.Storage.SaveTimeout)
}

func TestLoad_InvalidBackend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[storage]\nbackend = \"redis\"\n"), 0o644))
	chdir(t, dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_GitHubRequiresRepo(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[storage]\nbackend = \"github\"\n"), 0o644))
	chdir(t, dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_IGVRange(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Invoicing.DefaultIGVRate = 150
	assert.Error(t, cfg.Validate())
	cfg.Invoicing.DefaultIGVRate = -1
	assert.Error(t, cfg.Validate())
	cfg.Invoicing.DefaultIGVRate = 18
	assert.NoError(t, cfg.Validate())
}
