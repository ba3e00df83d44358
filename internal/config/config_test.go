package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.DataDir)
	require.Equal(t, filepath.Join(dir, "accounts.db"), cfg.DBPath)
	require.NotEmpty(t, cfg.ClientProcs)
	require.Empty(t, cfg.ClientPath)
}

func TestLoad_ReadsFileAndKeepsDataDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	body := `
data_dir: /elsewhere
db_path: /tmp/custom.db
client_path: /opt/steam/steam
client_procs: [steam]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.DataDir)
	require.Equal(t, "/tmp/custom.db", cfg.DBPath)
	require.Equal(t, "/opt/steam/steam", cfg.ClientPath)
	require.Equal(t, []string{"steam"}, cfg.ClientProcs)
}

func TestLoad_CreatesMissingDir(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "data")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.DirExists(t, cfg.DataDir)
}

func TestLoad_BadYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml"), 0o600))

	_, err := Load(dir)
	require.Error(t, err)
}
