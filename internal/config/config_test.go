package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, ".", cfg.Store.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "json", cfg.Output.Format)
	require.Equal(t, 8383, cfg.Admin.Port)
	require.Empty(t, cfg.Store.LockedTables)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  path: /data/odk
  locked_tables: [census, visits]
log:
  level: debug
  seq_url: http://localhost:5341
output:
  format: yaml
`), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, "/data/odk", cfg.Store.Path)
	require.Equal(t, []string{"census", "visits"}, cfg.Store.LockedTables)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "http://localhost:5341", cfg.Log.SeqURL)
	require.Equal(t, "yaml", cfg.Output.Format)
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TABLEKIT_LOG_LEVEL", "warn")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: xml\n"), 0o644))
	_, err = Load(viper.New(), path)
	require.ErrorContains(t, err, "output.format")
}
