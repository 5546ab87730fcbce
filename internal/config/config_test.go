package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nutrition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults_Valid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database: /var/lib/nutrition/data.db
catalog: units.yaml
log:
  enabled: true
  level: debug
`)

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/nutrition/data.db", cfg.Database)
	require.Equal(t, "units.yaml", cfg.Catalog)
	require.Equal(t, "gram", cfg.BaseUnit)
	require.True(t, cfg.Log.Enabled)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "nutrition.log", cfg.Log.Path)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "database: from-file.db\n")
	t.Setenv("NUTRITION_DATABASE", "from-env.db")
	t.Setenv("NUTRITION_LOG_LEVEL", "warn")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	require.Equal(t, "from-env.db", cfg.Database)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config")
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"no database", func(c *Config) { c.Database = "" }, "database"},
		{"no base unit", func(c *Config) { c.BaseUnit = "" }, "base_unit"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"enabled without path", func(c *Config) { c.Log.Enabled = true; c.Log.Path = "" }, "log.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
