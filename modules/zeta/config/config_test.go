package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, CompressionZSTD, c.Compression)
	require.Equal(t, 1, c.Concurrency)
}

func TestLoadRepoLocalMissingFileUsesDefault(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, CompressionZSTD, c.Compression)
}

func TestLoadRepoLocalOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, repoConfigPath), []byte(`
compression = "store"
concurrency = 4
`), 0644))

	c, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, CompressionStore, c.Compression)
	require.Equal(t, 4, c.Concurrency)
}

func TestLoadEnvOverridesRepoLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, repoConfigPath), []byte(`compression = "store"`), 0644))
	t.Setenv("ZETA_SUBSET_COMPRESSION", "zstd")

	c, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, CompressionZSTD, c.Compression)
}

func TestOverwriteLeavesZeroFieldsAlone(t *testing.T) {
	c := Default()
	c.Overwrite(&Config{MemoDSN: "user:pass@tcp(db)/memo"})
	require.Equal(t, CompressionZSTD, c.Compression)
	require.Equal(t, "user:pass@tcp(db)/memo", c.MemoDSN)
}
