package refs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

func TestReferenceUpdateCreatesNew(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend(dir)
	name := plumbing.NewBranchReferenceName("main")
	h := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	require.NoError(t, b.ReferenceUpdate(plumbing.NewHashReference(name, h), nil))

	ref, err := b.Reference(name)
	require.NoError(t, err)
	require.Equal(t, h, ref.Hash())
}

func TestReferenceUpdateCASRejectsStaleOld(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend(dir)
	name := plumbing.NewBranchReferenceName("main")
	h1 := plumbing.NewHash("1111111111111111111111111111111111111111111111111111111111111111")
	h2 := plumbing.NewHash("2222222222222222222222222222222222222222222222222222222222222222")
	stale := plumbing.NewHash("3333333333333333333333333333333333333333333333333333333333333333")

	require.NoError(t, b.ReferenceUpdate(plumbing.NewHashReference(name, h1), nil))

	err := b.ReferenceUpdate(plumbing.NewHashReference(name, h2), plumbing.NewHashReference(name, stale))
	require.True(t, plumbing.IsErrRefChanged(err))

	ref, err := b.Reference(name)
	require.NoError(t, err)
	require.Equal(t, h1, ref.Hash())
}

func TestReferenceNotFound(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend(dir)
	_, err := b.Reference(plumbing.NewBranchReferenceName("absent"))
	require.ErrorIs(t, err, plumbing.ErrReferenceNotFound)
}

func TestReferencePath(t *testing.T) {
	dir := t.TempDir()
	b := &fsBackend{repoPath: dir}
	name := plumbing.NewBranchReferenceName("feature/x")
	require.Equal(t, filepath.Join(dir, "refs", "heads", "feature", "x"), b.refPath(name))
}
