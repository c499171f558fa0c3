package memo

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	fingerprint := plumbing.NewHash("1111111111111111111111111111111111111111111111111111111111111111")

	trees := NewTable()
	trees.PutIfAbsent(
		plumbing.NewHash("2222222222222222222222222222222222222222222222222222222222222222"),
		Entry{Mapped: true, Target: plumbing.NewHash("3333333333333333333333333333333333333333333333333333333333333333")},
	)
	commits := NewTable()
	commits.PutIfAbsent(
		plumbing.NewHash("4444444444444444444444444444444444444444444444444444444444444444"),
		Entry{Mapped: false},
	)

	require.NoError(t, s.Save(t.Context(), fingerprint, trees, commits))

	gotTrees, gotCommits := NewTable(), NewTable()
	ok, err := s.Load(t.Context(), fingerprint, gotTrees, gotCommits)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, gotTrees.Len())
	require.Equal(t, 1, gotCommits.Len())

	e, ok := gotTrees.Get(plumbing.NewHash("2222222222222222222222222222222222222222222222222222222222222222"))
	require.True(t, ok)
	require.True(t, e.Mapped)
	require.Equal(t, plumbing.NewHash("3333333333333333333333333333333333333333333333333333333333333333"), e.Target)
}

func TestFileStoreLoadMissingFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	trees, commits := NewTable(), NewTable()
	ok, err := s.Load(t.Context(), plumbing.NewHash("5555555555555555555555555555555555555555555555555555555555555555"), trees, commits)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, trees.Len())
}

func TestFileStoreLoadFingerprintMismatchStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	f1 := plumbing.NewHash("6666666666666666666666666666666666666666666666666666666666666666")
	f2 := plumbing.NewHash("7777777777777777777777777777777777777777777777777777777777777777")

	trees := NewTable()
	trees.PutIfAbsent(
		plumbing.NewHash("8888888888888888888888888888888888888888888888888888888888888888"),
		Entry{Mapped: true, Target: plumbing.NewHash("9999999999999999999999999999999999999999999999999999999999999999")},
	)
	require.NoError(t, s.Save(t.Context(), f1, trees, NewTable()))

	gotTrees, gotCommits := NewTable(), NewTable()
	ok, err := s.Load(t.Context(), f2, gotTrees, gotCommits)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, gotTrees.Len())
}
