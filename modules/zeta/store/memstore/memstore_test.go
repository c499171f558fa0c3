package memstore

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
)

func TestWriteReadCommit(t *testing.T) {
	s := New()
	c := &object.Commit{
		Tree:      plumbing.NewHash("1111111111111111111111111111111111111111111111111111111111111111"),
		Author:    object.Signature{Name: "a", Email: "a@example.com"},
		Committer: object.Signature{Name: "a", Email: "a@example.com"},
		Message:   "hi\n",
	}
	oid, err := s.WriteCommit(t.Context(), c)
	require.NoError(t, err)

	got, err := s.Commit(t.Context(), oid)
	require.NoError(t, err)
	require.Equal(t, c.Message, got.Message)

	_, err = got.Root(t.Context())
	require.True(t, plumbing.IsNoSuchObject(err))
}

func TestSetRefOverwriteGate(t *testing.T) {
	s := New()
	name := plumbing.NewBranchReferenceName("main")
	h1 := plumbing.NewHash("2222222222222222222222222222222222222222222222222222222222222222")
	h2 := plumbing.NewHash("3333333333333333333333333333333333333333333333333333333333333333")

	require.NoError(t, s.SetRef(t.Context(), name, h1, false))
	require.ErrorIs(t, s.SetRef(t.Context(), name, h2, false), store.ErrBranchExists)
	require.NoError(t, s.SetRef(t.Context(), name, h2, true))

	got, ok := s.Ref(name)
	require.True(t, ok)
	require.Equal(t, h2, got)
}

func TestResolveRevByHashAndBranch(t *testing.T) {
	s := New()
	h := plumbing.NewHash("4444444444444444444444444444444444444444444444444444444444444444")
	require.NoError(t, s.SetRef(t.Context(), plumbing.NewBranchReferenceName("main"), h, false))

	got, err := s.ResolveRev(t.Context(), "main")
	require.NoError(t, err)
	require.Equal(t, h, got)

	got, err = s.ResolveRev(t.Context(), h.String())
	require.NoError(t, err)
	require.Equal(t, h, got)
}
