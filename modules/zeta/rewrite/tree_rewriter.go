package rewrite

import (
	"context"

	"github.com/zeta-vcs/zeta-subset/modules/pathfilter"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/memo"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
)

// TreeKind is the shape of a TreeRewriter result.
type TreeKind int

const (
	// TreeUnchanged means the source tree is kept as-is under its
	// original id; nothing inside it was pruned.
	TreeUnchanged TreeKind = iota
	// TreeRewritten means a new tree was written with some entries
	// dropped or substituted.
	TreeRewritten
	// TreeEmpty is the sentinel: every entry was pruned away. The caller
	// substitutes the object store's canonical empty-tree id; no object
	// is written for it.
	TreeEmpty
)

type TreeResult struct {
	Kind TreeKind
	ID   plumbing.Hash
}

// TreeRewriter prunes a source tree against a PathFilter, memoized by
// source tree id so an identical subtree - encountered again across
// sibling directories, across commits, across runs - is rewritten at
// O(1) cost once its first occurrence has been resolved.
type TreeRewriter struct {
	store       store.ObjectStore
	filter      *pathfilter.Filter
	memo        *memo.Table
	emptyTreeID plumbing.Hash
}

func NewTreeRewriter(st store.ObjectStore, filter *pathfilter.Filter, table *memo.Table) *TreeRewriter {
	return &TreeRewriter{
		store:       st,
		filter:      filter,
		memo:        table,
		emptyTreeID: object.Hash(object.NewTree(nil)),
	}
}

// EmptyTreeID is the canonical empty-tree object id; it is never written
// as a distinct object.
func (tr *TreeRewriter) EmptyTreeID() plumbing.Hash {
	return tr.emptyTreeID
}

// Rewrite prunes the tree identified by treeID, which sits at prefix
// (its path of path components from the repository root).
func (tr *TreeRewriter) Rewrite(ctx context.Context, treeID plumbing.Hash, prefix []string) (TreeResult, error) {
	if entry, ok := tr.memo.Get(treeID); ok {
		return resultFromEntry(treeID, entry), nil
	}

	switch tr.filter.Classify(prefix) {
	case pathfilter.Inside:
		tr.memo.PutIfAbsent(treeID, memo.Entry{Mapped: true, Target: treeID})
		return TreeResult{Kind: TreeUnchanged, ID: treeID}, nil
	case pathfilter.Outside:
		// Reachable only via a direct call: TreeRewriter's own recursion
		// filters Outside children before ever recursing into them.
		tr.memo.PutIfAbsent(treeID, memo.Entry{Mapped: false})
		return TreeResult{Kind: TreeEmpty}, nil
	}

	src, err := tr.store.Tree(ctx, treeID)
	if err != nil {
		return TreeResult{}, err
	}

	entries := make([]*object.TreeEntry, 0, len(src.Entries))
	changed := false
	for _, e := range src.Entries {
		childPrefix := appendPrefix(prefix, e.Name)
		switch tr.filter.Classify(childPrefix) {
		case pathfilter.Inside:
			entries = append(entries, e)
		case pathfilter.Outside:
			changed = true
		case pathfilter.Partial:
			if !e.IsDir() {
				// The filter named neither this exact file nor could it
				// descend into a blob; drop it.
				changed = true
				continue
			}
			sub, err := tr.Rewrite(ctx, e.Hash, childPrefix)
			if err != nil {
				return TreeResult{}, err
			}
			switch sub.Kind {
			case TreeEmpty:
				changed = true
			case TreeRewritten:
				changed = true
				clone := e.Clone()
				clone.Hash = sub.ID
				entries = append(entries, clone)
			case TreeUnchanged:
				entries = append(entries, e)
			}
		}
	}

	if len(entries) == 0 {
		tr.memo.PutIfAbsent(treeID, memo.Entry{Mapped: false})
		return TreeResult{Kind: TreeEmpty}, nil
	}
	if !changed {
		tr.memo.PutIfAbsent(treeID, memo.Entry{Mapped: true, Target: treeID})
		return TreeResult{Kind: TreeUnchanged, ID: treeID}, nil
	}

	// entries is a subsequence of src.Entries, which is already in
	// canonical order, so it needs no re-sort before writing.
	newTree := &object.Tree{Entries: entries}
	oid, err := tr.store.WriteTree(ctx, newTree)
	if err != nil {
		return TreeResult{}, err
	}
	tr.memo.PutIfAbsent(treeID, memo.Entry{Mapped: true, Target: oid})
	return TreeResult{Kind: TreeRewritten, ID: oid}, nil
}

func resultFromEntry(src plumbing.Hash, e memo.Entry) TreeResult {
	if !e.Mapped {
		return TreeResult{Kind: TreeEmpty}
	}
	if e.Target == src {
		return TreeResult{Kind: TreeUnchanged, ID: src}
	}
	return TreeResult{Kind: TreeRewritten, ID: e.Target}
}

func appendPrefix(prefix []string, name string) []string {
	next := make([]string, len(prefix)+1)
	copy(next, prefix)
	next[len(prefix)] = name
	return next
}
