package memo

import (
	"context"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

// Store persists the TreeMemo and CommitMemo tables across runs, keyed
// to a PathFilter fingerprint. A mismatch between the stored and current
// fingerprint, a missing memo, or a corrupt one are all non-fatal: Load
// leaves trees/commits empty and the run simply recomputes everything.
type Store interface {
	// Load reports whether a compatible memo was found. trees/commits are
	// populated on a hit and left empty (never partially populated) on a
	// miss, so callers never need to reset them defensively.
	Load(ctx context.Context, fingerprint plumbing.Hash, trees, commits *Table) (bool, error)
	// Save persists trees/commits under fingerprint. Called only after a
	// fully successful run, per the engine's "flush on success" policy.
	Save(ctx context.Context, fingerprint plumbing.Hash, trees, commits *Table) error
}

// Noop is the "--nomap" backend: Load always misses, Save is a no-op.
type Noop struct{}

func (Noop) Load(ctx context.Context, fingerprint plumbing.Hash, trees, commits *Table) (bool, error) {
	return false, nil
}

func (Noop) Save(ctx context.Context, fingerprint plumbing.Hash, trees, commits *Table) error {
	return nil
}

var _ Store = Noop{}
