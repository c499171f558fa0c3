package composite

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store/memstore"
)

func TestCommitFallsBackToSource(t *testing.T) {
	source, dest := memstore.New(), memstore.New()
	rt := &ReadThrough{Source: source, Dest: dest}

	tree := &object.Tree{}
	treeID, err := source.WriteTree(t.Context(), tree)
	require.NoError(t, err)
	commitID, err := source.WriteCommit(t.Context(), &object.Commit{Tree: treeID})
	require.NoError(t, err)

	got, err := rt.Commit(t.Context(), commitID)
	require.NoError(t, err)
	require.Equal(t, commitID, got.Hash)
}

func TestTreePrefersDestOverSource(t *testing.T) {
	source, dest := memstore.New(), memstore.New()
	rt := &ReadThrough{Source: source, Dest: dest}

	oid, err := source.WriteTree(t.Context(), &object.Tree{})
	require.NoError(t, err)
	dest.PutTree(oid, &object.Tree{Entries: []*object.TreeEntry{{Name: "from-dest"}}})

	got, err := rt.Tree(t.Context(), oid)
	require.NoError(t, err)
	require.Equal(t, oid, got.Hash)
	require.Len(t, got.Entries, 1)
}

func TestWritesAlwaysGoToDest(t *testing.T) {
	source, dest := memstore.New(), memstore.New()
	rt := &ReadThrough{Source: source, Dest: dest}

	oid, err := rt.WriteTree(t.Context(), &object.Tree{})
	require.NoError(t, err)

	_, err = dest.Tree(t.Context(), oid)
	require.NoError(t, err)
	_, err = source.Tree(t.Context(), oid)
	require.Error(t, err)
}

func TestResolveRevAndSetRefTargetDest(t *testing.T) {
	source, dest := memstore.New(), memstore.New()
	rt := &ReadThrough{Source: source, Dest: dest}

	oid, err := rt.WriteCommit(t.Context(), &object.Commit{})
	require.NoError(t, err)
	require.NoError(t, rt.SetRef(t.Context(), "refs/heads/subset", oid, false))

	got, ok := dest.Ref("refs/heads/subset")
	require.True(t, ok)
	require.Equal(t, oid, got)

	resolved, err := rt.ResolveRev(t.Context(), "subset")
	require.NoError(t, err)
	require.Equal(t, oid, resolved)
}
