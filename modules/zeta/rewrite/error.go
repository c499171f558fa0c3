package rewrite

import (
	"errors"
	"fmt"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

// ErrEmptyHistory is returned when every commit in the source history
// collapses to the empty tree and the caller asked for that to be a
// failure rather than a single empty-tree root commit.
var ErrEmptyHistory = errors.New("zeta-subset: rewrite produced no history")

// ErrCancelled is returned when the run's context is cancelled between
// commits. Memos built up to that point remain individually valid and
// may be persisted; the branch is not updated.
var ErrCancelled = errors.New("zeta-subset: rewrite cancelled")

// ErrCorruptObject marks a commit or tree whose bytes could be read but
// not decoded, or whose graph bookkeeping is inconsistent (a cycle, or a
// parent the walker never emitted).
type ErrCorruptObject struct {
	OID    plumbing.Hash
	Reason string
}

func (e *ErrCorruptObject) Error() string {
	return fmt.Sprintf("zeta-subset: corrupt object %s: %s", e.OID, e.Reason)
}

func IsErrCorruptObject(err error) bool {
	_, ok := err.(*ErrCorruptObject)
	return ok
}

// ErrParentNotReady signals a HistoryWalker/CommitRewriter contract
// violation: a commit was dispatched before one of its parents had a
// memo entry. It should never surface outside of a test that drives
// CommitRewriter directly, out of topological order.
type ErrParentNotReady struct {
	Commit plumbing.Hash
	Parent plumbing.Hash
}

func (e *ErrParentNotReady) Error() string {
	return fmt.Sprintf("zeta-subset: commit %s dispatched before parent %s was rewritten", e.Commit, e.Parent)
}

func IsErrParentNotReady(err error) bool {
	_, ok := err.(*ErrParentNotReady)
	return ok
}
