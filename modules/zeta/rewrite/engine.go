package rewrite

import (
	"context"
	"sync"

	"github.com/zeta-vcs/zeta-subset/modules/pathfilter"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/memo"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
)

// Options configures one Engine run.
type Options struct {
	// Branch is the destination ref updated to the new head on success.
	Branch plumbing.ReferenceName
	// AllowOverwrite lets Branch already exist and move.
	AllowOverwrite bool
	// EmitEmptyRoot controls what happens when the rewritten head turns
	// out to be a parentless commit at the empty tree - every commit the
	// whitelist ever touched was pruned away entirely. True (the
	// default) still lands the branch on that commit; false fails the
	// run with ErrEmptyHistory instead.
	EmitEmptyRoot bool
	// Parallel caps how many commits CommitRewriter may process at once.
	// 1 (the default) keeps the single-threaded schedule spec.md
	// describes; higher values dispatch through Walker.WalkParallel,
	// still never starting a commit before every parent is rewritten.
	Parallel int
	// OnCommit, if set, is called once per source commit after it is
	// rewritten. Under Parallel > 1 it is called serially - Engine holds
	// a lock around each call - so a caller's closure never needs its
	// own synchronization.
	OnCommit func(src plumbing.Hash, result CommitResult)
}

// Engine ties the HistoryWalker, TreeRewriter and CommitRewriter into
// one run: walk the source DAG in reverse-topological order, rewrite
// every commit, and land the surviving head on a branch.
type Engine struct {
	store                store.ObjectStore
	walker               *Walker
	trees                *TreeRewriter
	commits              *CommitRewriter
	treeMemo, commitMemo *memo.Table
}

// NewEngine builds an Engine that reads and writes through st. For a
// cross-store run (reading a read-only mirror while writing to a local
// destination) pass a *composite.ReadThrough as st: the engine itself
// only ever sees one store.ObjectStore.
func NewEngine(st store.ObjectStore, filter *pathfilter.Filter, treeMemo, commitMemo *memo.Table) *Engine {
	trees := NewTreeRewriter(st, filter, treeMemo)
	return &Engine{
		store:      st,
		walker:     NewWalker(st),
		trees:      trees,
		commits:    NewCommitRewriter(st, trees, commitMemo),
		treeMemo:   treeMemo,
		commitMemo: commitMemo,
	}
}

// Run rewrites every commit reachable from start and, on success, points
// opts.Branch at the rewritten head.
func (e *Engine) Run(ctx context.Context, start plumbing.Hash, opts Options) (plumbing.Hash, error) {
	var mu sync.Mutex
	head := plumbing.ZeroHash

	visit := func(ctx context.Context, id plumbing.Hash) error {
		result, err := e.commits.Rewrite(ctx, id)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if opts.OnCommit != nil {
			opts.OnCommit(id, result)
		}
		if id == start {
			head = result.ID
		}
		return nil
	}

	var err error
	if opts.Parallel > 1 {
		err = e.walker.WalkParallel(ctx, start, opts.Parallel, visit)
	} else {
		err = e.walker.Walk(ctx, start, visit)
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if !opts.EmitEmptyRoot {
		empty, err := e.isEmptyRoot(ctx, head)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if empty {
			return plumbing.ZeroHash, ErrEmptyHistory
		}
	}

	if opts.Branch != "" {
		if err := e.store.SetRef(ctx, opts.Branch, head, opts.AllowOverwrite); err != nil {
			return plumbing.ZeroHash, err
		}
	}
	return head, nil
}

// LoadMemo populates the engine's tree and commit memos from s, provided
// the persisted fingerprint matches the filter this engine was built
// with. Call this before Run to make a re-run incremental.
func (e *Engine) LoadMemo(ctx context.Context, s memo.Store, fingerprint plumbing.Hash) (bool, error) {
	return s.Load(ctx, fingerprint, e.treeMemo, e.commitMemo)
}

// SaveMemo persists the engine's current tree and commit memos to s
// under fingerprint. Call this after a successful Run.
func (e *Engine) SaveMemo(ctx context.Context, s memo.Store, fingerprint plumbing.Hash) error {
	return s.Save(ctx, fingerprint, e.treeMemo, e.commitMemo)
}

// isEmptyRoot reports whether head is a parentless commit at the
// canonical empty tree - the whole walked history contributed nothing
// to the whitelist.
func (e *Engine) isEmptyRoot(ctx context.Context, head plumbing.Hash) (bool, error) {
	c, err := e.store.Commit(ctx, head)
	if err != nil {
		return false, err
	}
	return len(c.Parents) == 0 && c.Tree == e.trees.EmptyTreeID(), nil
}
