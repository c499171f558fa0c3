// Package store defines the ObjectStore capability a rewrite run is built
// against: read commits/trees by hash, write new trees/commits, resolve a
// revision string to a hash, and atomically set a branch ref. Concrete
// backends (store/local, store/s3, store/memstore) implement it; the
// rewrite engine itself never imports a concrete backend.
package store

import (
	"context"
	"errors"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
)

// ErrBranchExists is returned by SetRef when the branch already exists and
// allowOverwrite is false.
var ErrBranchExists = errors.New("zeta-subset: branch already exists")

// ErrReadOnlyStore is returned by the write-side methods of a read-only
// ObjectStore (e.g. store/s3).
var ErrReadOnlyStore = errors.New("zeta-subset: object store is read-only")

// ObjectStore is the external collaborator a rewrite run is built
// against. Commit/Tree double as object.Backend, so a *Tree or
// *Commit decoded from one ObjectStore can lazily dereference children
// through the same store.
type ObjectStore interface {
	object.Backend

	// WriteTree serializes and content-addresses t, returning its id.
	// Writing the same tree twice returns the same id without error.
	WriteTree(ctx context.Context, t *object.Tree) (plumbing.Hash, error)
	// WriteCommit serializes and content-addresses c, returning its id.
	WriteCommit(ctx context.Context, c *object.Commit) (plumbing.Hash, error)
	// ResolveRev resolves a revision string (branch name or hex object id)
	// to a commit id.
	ResolveRev(ctx context.Context, revspec string) (plumbing.Hash, error)
	// SetRef atomically points name at id. If the ref already exists and
	// allowOverwrite is false, it fails with ErrBranchExists.
	SetRef(ctx context.Context, name plumbing.ReferenceName, id plumbing.Hash, allowOverwrite bool) error
}
