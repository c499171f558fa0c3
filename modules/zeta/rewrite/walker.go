package rewrite

import (
	"bytes"
	"context"

	"github.com/emirpasic/gods/trees/binaryheap"
	"golang.org/x/sync/errgroup"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
)

// Walker enumerates a commit DAG reachable from a starting revision in
// reverse-topological order: every parent strictly before its child,
// every commit exactly once, the starting commit last.
type Walker struct {
	store store.ObjectStore
}

func NewWalker(st store.ObjectStore) *Walker {
	return &Walker{store: st}
}

func hashComparator(a, b any) int {
	ha, hb := a.(plumbing.Hash), b.(plumbing.Hash)
	return bytes.Compare(ha[:], hb[:])
}

// discover runs the iterative (non-recursive) discovery DFS shared by
// Walk and WalkParallel: histories hundreds of thousands of commits deep
// don't exhaust the Go call stack this way.
func (w *Walker) discover(ctx context.Context, start plumbing.Hash) (childrenOf map[plumbing.Hash][]plumbing.Hash, indegree map[plumbing.Hash]int, total int, err error) {
	childrenOf = make(map[plumbing.Hash][]plumbing.Hash)
	indegree = make(map[plumbing.Hash]int)
	discovered := make(map[plumbing.Hash]bool)

	stack := []plumbing.Hash{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if discovered[id] {
			continue
		}
		discovered[id] = true
		c, err := w.store.Commit(ctx, id)
		if err != nil {
			return nil, nil, 0, err
		}
		indegree[id] = len(c.Parents)
		for _, p := range c.Parents {
			childrenOf[p] = append(childrenOf[p], id)
			if !discovered[p] {
				stack = append(stack, p)
			}
		}
	}
	return childrenOf, indegree, len(discovered), nil
}

// Walk runs the two-pass schedule: discovery, followed by Kahn-style
// emission from a min-heap of ready commits (in-degree zero within the
// reachable set) ordered by ascending id, so repeated runs over the same
// history agree on how ties are broken. Commits are visited strictly one
// at a time; use WalkParallel for concurrent dispatch.
func (w *Walker) Walk(ctx context.Context, start plumbing.Hash, visit func(ctx context.Context, id plumbing.Hash) error) error {
	childrenOf, indegree, total, err := w.discover(ctx, start)
	if err != nil {
		return err
	}

	ready := binaryheap.NewWith(hashComparator)
	for id, n := range indegree {
		if n == 0 {
			ready.Push(id)
		}
	}

	emitted := 0
	for {
		if err := ctx.Err(); err != nil {
			return ErrCancelled
		}
		v, ok := ready.Pop()
		if !ok {
			break
		}
		id := v.(plumbing.Hash)
		if err := visit(ctx, id); err != nil {
			return err
		}
		emitted++
		for _, child := range childrenOf[id] {
			indegree[child]--
			if indegree[child] == 0 {
				ready.Push(child)
			}
		}
	}
	if emitted != total {
		return &ErrCorruptObject{OID: start, Reason: "commit graph has a cycle or inconsistent parent bookkeeping"}
	}
	return nil
}

// WalkParallel is Walk's concurrent counterpart: up to parallel commits
// whose parents are all already rewritten may be dispatched to visit at
// once. A commit is still never dispatched before every one of its
// parents has completed, matching the permitted parallel schedule: the
// in-degree bookkeeping that decides readiness only ever runs on this
// goroutine, so the CommitRewriter/TreeRewriter memo tables are the only
// state visit's callers share across workers, and their PutIfAbsent is
// itself the compare-and-set that lets a losing race adopt the winner's
// id instead of overwriting it. parallel <= 1 falls back to Walk.
func (w *Walker) WalkParallel(ctx context.Context, start plumbing.Hash, parallel int, visit func(ctx context.Context, id plumbing.Hash) error) error {
	if parallel <= 1 {
		return w.Walk(ctx, start, visit)
	}

	childrenOf, indegree, total, err := w.discover(ctx, start)
	if err != nil {
		return err
	}

	ready := binaryheap.NewWith(hashComparator)
	for id, n := range indegree {
		if n == 0 {
			ready.Push(id)
		}
	}

	// Buffered to the total reachable set: every id passes through work
	// and results exactly once, so neither send can block.
	work := make(chan plumbing.Hash, total)
	results := make(chan plumbing.Hash, total)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < parallel; i++ {
		g.Go(func() error {
			for {
				select {
				case id, ok := <-work:
					if !ok {
						return nil
					}
					if err := visit(gctx, id); err != nil {
						return err
					}
					results <- id
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	for v, ok := ready.Pop(); ok; v, ok = ready.Pop() {
		work <- v.(plumbing.Hash)
	}

	emitted := 0
	for emitted < total {
		select {
		case id := <-results:
			emitted++
			for _, child := range childrenOf[id] {
				indegree[child]--
				if indegree[child] == 0 {
					work <- child
				}
			}
		case <-gctx.Done():
			close(work)
			if err := g.Wait(); err != nil && ctx.Err() == nil {
				return err
			}
			return ErrCancelled
		}
	}
	close(work)
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return err
	}
	if emitted != total {
		return &ErrCorruptObject{OID: start, Reason: "commit graph has a cycle or inconsistent parent bookkeeping"}
	}
	return nil
}
