// Package memo implements the TreeMemo/CommitMemo mappings the rewrite
// engine consults and mutates, plus their durable backends: a binary
// file format for a single machine and a MySQL schema for a fleet of
// short-lived workers sharing one memo.
package memo

import (
	"sync"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

// Entry records what a source object rewrote to: Mapped with a Target,
// or dropped (the zero value, Mapped=false).
type Entry struct {
	Mapped bool
	Target plumbing.Hash
}

// Table is a concurrency-safe source-id -> Entry mapping. TreeMemo and
// CommitMemo are each one Table.
type Table struct {
	mu sync.RWMutex
	m  map[plumbing.Hash]Entry
}

func NewTable() *Table {
	return &Table{m: make(map[plumbing.Hash]Entry)}
}

func (t *Table) Get(src plumbing.Hash) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.m[src]
	return e, ok
}

// PutIfAbsent inserts entry for src if no mapping exists yet and returns
// whichever entry ends up stored: entry itself on a fresh insert, or the
// existing mapping if a concurrent writer already won. This is the
// compare-and-set the permitted parallel schedule requires: a commit's
// memo entry is written exactly once, and losers of the race adopt the
// winner's id instead of overwriting it.
func (t *Table) PutIfAbsent(src plumbing.Hash, entry Entry) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.m[src]; ok {
		return existing
	}
	t.m[src] = entry
	return entry
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

// Range iterates a snapshot of the table's mappings in no particular
// order. Safe to call while other goroutines mutate the table.
func (t *Table) Range(fn func(src plumbing.Hash, entry Entry) bool) {
	t.mu.RLock()
	snapshot := make(map[plumbing.Hash]Entry, len(t.m))
	for k, v := range t.m {
		snapshot[k] = v
	}
	t.mu.RUnlock()
	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}

// Reset discards all mappings, used when a loaded memo turns out to be
// format- or fingerprint-incompatible.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m = make(map[plumbing.Hash]Entry)
}
