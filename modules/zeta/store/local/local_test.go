package local

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing/filemode"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
)

func TestWriteReadTreeRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	tr := object.NewTree([]*object.TreeEntry{
		{Name: "README.md", Mode: filemode.Regular, Hash: plumbing.NewHash("1111111111111111111111111111111111111111111111111111111111111111")},
	})
	oid, err := s.WriteTree(t.Context(), tr)
	require.NoError(t, err)
	require.False(t, oid.IsZero())

	got, err := s.Tree(t.Context(), oid)
	require.NoError(t, err)
	require.True(t, tr.Equal(got))
}

func TestWriteReadCommitRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	c := &object.Commit{
		Tree:      plumbing.NewHash("2222222222222222222222222222222222222222222222222222222222222222"),
		Author:    object.Signature{Name: "a", Email: "a@example.com"},
		Committer: object.Signature{Name: "a", Email: "a@example.com"},
		Message:   "initial\n",
	}
	oid, err := s.WriteCommit(t.Context(), c)
	require.NoError(t, err)

	got, err := s.Commit(t.Context(), oid)
	require.NoError(t, err)
	require.Equal(t, c.Tree, got.Tree)
	require.Equal(t, c.Message, got.Message)
}

func TestReadMissingObject(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Commit(t.Context(), plumbing.NewHash("3333333333333333333333333333333333333333333333333333333333333333"))
	require.True(t, plumbing.IsNoSuchObject(err))
}

func TestSetRefCreateThenRejectOverwrite(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	name := plumbing.NewBranchReferenceName("main")
	h1 := plumbing.NewHash("4444444444444444444444444444444444444444444444444444444444444444")
	h2 := plumbing.NewHash("5555555555555555555555555555555555555555555555555555555555555555")

	require.NoError(t, s.SetRef(t.Context(), name, h1, false))
	require.ErrorIs(t, s.SetRef(t.Context(), name, h2, false), store.ErrBranchExists)

	got, err := s.ResolveRev(t.Context(), "main")
	require.NoError(t, err)
	require.Equal(t, h1, got)

	require.NoError(t, s.SetRef(t.Context(), name, h2, true))
	got, err = s.ResolveRev(t.Context(), "main")
	require.NoError(t, err)
	require.Equal(t, h2, got)
}
