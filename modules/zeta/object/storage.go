package object

import (
	"context"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

// Backend is the minimal object-resolution capability Tree/Commit need to
// lazily dereference a child hash into its decoded form. Concrete
// ObjectStore implementations (store/local, store/s3) satisfy it.
type Backend interface {
	Commit(ctx context.Context, oid plumbing.Hash) (*Commit, error)
	Tree(ctx context.Context, oid plumbing.Hash) (*Tree, error)
}
