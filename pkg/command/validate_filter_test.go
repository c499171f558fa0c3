package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFilterAcceptsWellFormedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "whitelist.txt")
	require.NoError(t, os.WriteFile(path, []byte("keep.txt\nsrc/\n"), 0644))

	c := &ValidateFilter{File: path}
	require.NoError(t, c.Run(&Globals{}))
}

func TestValidateFilterRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("# only a comment\n"), 0644))

	c := &ValidateFilter{File: path}
	err := c.Run(&Globals{})
	require.True(t, IsExitCode(err, 1))
}

func TestValidateFilterRejectsMissingFile(t *testing.T) {
	c := &ValidateFilter{File: filepath.Join(t.TempDir(), "nope.txt")}
	err := c.Run(&Globals{})
	require.True(t, IsExitCode(err, 1))
}
