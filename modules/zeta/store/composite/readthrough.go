// Package composite wires independent ObjectStore backends together.
package composite

import (
	"context"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
)

// ReadThrough composes a read-only Source with a writable Dest into a
// single ObjectStore: reads check Dest first, for objects this run has
// already written, and fall back to Source for objects that still only
// exist in the history being rewritten. Writes and the branch ref
// always land in Dest. This is how a run sourced from a cold-storage
// mirror (store/s3) targets a local working copy (store/local) without
// first restoring the whole history to disk.
//
// Unchanged subtrees are never copied into Dest - only pruned trees and
// rewritten commits are new objects there. Reading the result back out
// requires Source to stay reachable for as long as Dest is read through
// this adapter rather than directly.
type ReadThrough struct {
	Source store.ObjectStore
	Dest   store.ObjectStore
}

var _ store.ObjectStore = (*ReadThrough)(nil)

func (rt *ReadThrough) Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error) {
	if c, err := rt.Dest.Commit(ctx, oid); err == nil {
		return c.WithBackend(rt), nil
	} else if !plumbing.IsNoSuchObject(err) {
		return nil, err
	}
	c, err := rt.Source.Commit(ctx, oid)
	if err != nil {
		return nil, err
	}
	return c.WithBackend(rt), nil
}

func (rt *ReadThrough) Tree(ctx context.Context, oid plumbing.Hash) (*object.Tree, error) {
	if t, err := rt.Dest.Tree(ctx, oid); err == nil {
		return t.WithBackend(rt), nil
	} else if !plumbing.IsNoSuchObject(err) {
		return nil, err
	}
	t, err := rt.Source.Tree(ctx, oid)
	if err != nil {
		return nil, err
	}
	return t.WithBackend(rt), nil
}

// WriteTree always writes to Dest, even when t is byte-identical to an
// object Source already holds: the engine only calls WriteTree for
// trees it classified as changed.
func (rt *ReadThrough) WriteTree(ctx context.Context, t *object.Tree) (plumbing.Hash, error) {
	oid, err := rt.Dest.WriteTree(ctx, t)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	t.WithBackend(rt)
	return oid, nil
}

func (rt *ReadThrough) WriteCommit(ctx context.Context, c *object.Commit) (plumbing.Hash, error) {
	oid, err := rt.Dest.WriteCommit(ctx, c)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	c.WithBackend(rt)
	return oid, nil
}

// ResolveRev resolves against Dest: the branch being produced lives
// there. Resolving the source revision being rewritten is the caller's
// job, against Source directly, before the run starts.
func (rt *ReadThrough) ResolveRev(ctx context.Context, revspec string) (plumbing.Hash, error) {
	return rt.Dest.ResolveRev(ctx, revspec)
}

func (rt *ReadThrough) SetRef(ctx context.Context, name plumbing.ReferenceName, id plumbing.Hash, allowOverwrite bool) error {
	return rt.Dest.SetRef(ctx, name, id, allowOverwrite)
}
