package rewrite

import (
	"context"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/memo"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
)

// CommitResult is the outcome of rewriting one commit. Dropped is true
// when the commit collapsed into its sole surviving parent rather than
// producing a new object; its children splice through to ID directly.
// Dropped is only set the run that actually computes the collapse - a
// later memo hit for the same source commit reports Dropped=false
// regardless, since the memo does not retain which kind of target its
// entry is.
type CommitResult struct {
	Dropped bool
	ID      plumbing.Hash
}

// CommitRewriter rewrites a source commit by pruning its root tree,
// remapping its parents through the commit memo, and collapsing commits
// that contribute no change. Memoized by source commit id.
type CommitRewriter struct {
	store store.ObjectStore
	trees *TreeRewriter
	memo  *memo.Table
}

func NewCommitRewriter(st store.ObjectStore, trees *TreeRewriter, table *memo.Table) *CommitRewriter {
	return &CommitRewriter{store: st, trees: trees, memo: table}
}

// Rewrite rewrites commitID. Every parent of commitID must already have
// a CommitMemo entry - the HistoryWalker guarantees this by dispatching
// commits in reverse-topological order.
func (cr *CommitRewriter) Rewrite(ctx context.Context, commitID plumbing.Hash) (CommitResult, error) {
	if entry, ok := cr.memo.Get(commitID); ok {
		// A memo hit - whether from earlier in this run or loaded from a
		// prior one - carries only the target id, not whether producing
		// it originally collapsed a commit. Dropped is only meaningful
		// the run a commit is actually rewritten.
		return CommitResult{ID: entry.Target}, nil
	}

	c, err := cr.store.Commit(ctx, commitID)
	if err != nil {
		return CommitResult{}, err
	}

	treeResult, err := cr.trees.Rewrite(ctx, c.Tree, nil)
	if err != nil {
		return CommitResult{}, err
	}
	newRoot := cr.trees.EmptyTreeID()
	if treeResult.Kind != TreeEmpty {
		newRoot = treeResult.ID
	}

	newParents := make([]plumbing.Hash, 0, len(c.Parents))
	seen := make(map[plumbing.Hash]struct{}, len(c.Parents))
	for _, p := range c.Parents {
		entry, ok := cr.memo.Get(p)
		if !ok {
			return CommitResult{}, &ErrParentNotReady{Commit: commitID, Parent: p}
		}
		if !entry.Mapped {
			continue
		}
		if _, dup := seen[entry.Target]; dup {
			continue
		}
		seen[entry.Target] = struct{}{}
		newParents = append(newParents, entry.Target)
	}

	if len(newParents) == 1 {
		parentRoot, err := cr.rootOf(ctx, newParents[0])
		if err != nil {
			return CommitResult{}, err
		}
		if parentRoot == newRoot {
			result := cr.memo.PutIfAbsent(commitID, memo.Entry{Mapped: true, Target: newParents[0]})
			return CommitResult{Dropped: true, ID: result.Target}, nil
		}
	}

	nc := &object.Commit{
		Tree:         newRoot,
		Parents:      newParents,
		Author:       c.Author,
		Committer:    c.Committer,
		ExtraHeaders: c.ExtraHeaders,
		Message:      c.Message,
	}
	oid, err := cr.store.WriteCommit(ctx, nc)
	if err != nil {
		return CommitResult{}, err
	}
	result := cr.memo.PutIfAbsent(commitID, memo.Entry{Mapped: true, Target: oid})
	return CommitResult{ID: result.Target}, nil
}

func (cr *CommitRewriter) rootOf(ctx context.Context, commitID plumbing.Hash) (plumbing.Hash, error) {
	c, err := cr.store.Commit(ctx, commitID)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return c.Tree, nil
}
