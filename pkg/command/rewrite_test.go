package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPatternsUnionsFilterFileAndPathFlags(t *testing.T) {
	dir := t.TempDir()
	filterPath := filepath.Join(dir, "whitelist.txt")
	require.NoError(t, os.WriteFile(filterPath, []byte("# comment\nsrc/keep.go\n\n/docs/\n"), 0644))

	c := &Rewrite{
		FilterFile: []string{filterPath},
		Path:       []string{"/docs", "extra/file.txt"},
	}
	patterns, err := c.loadPatterns()
	require.NoError(t, err)
	require.ElementsMatch(t, [][]string{
		{"src", "keep.go"},
		{"docs"},
		{"extra", "file.txt"},
	}, patterns)
}

func TestLoadPatternsRejectsUnreadableFilterFile(t *testing.T) {
	c := &Rewrite{FilterFile: []string{filepath.Join(t.TempDir(), "missing.txt")}}
	_, err := c.loadPatterns()
	require.Error(t, err)
}

func TestRunRejectsEmptyPatternSet(t *testing.T) {
	c := &Rewrite{Repo: t.TempDir(), Branch: "refs/heads/subset"}
	err := c.Run(&Globals{})
	require.True(t, IsExitCode(err, 1))
}

func TestRunRequiresDestWithS3Source(t *testing.T) {
	c := &Rewrite{
		Repo:     t.TempDir(),
		Branch:   "refs/heads/subset",
		Path:     []string{"keep.txt"},
		S3Bucket: "some-bucket",
	}
	err := c.Run(&Globals{})
	require.True(t, IsExitCode(err, 1))
}
