// Package pathfilter compiles a whitelist of repository-root-relative
// paths into a trie that the rewrite engine walks alongside a tree,
// classifying each prefix as fully outside, fully inside, or requiring
// further descent.
package pathfilter

import (
	"sort"
	"strings"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

// Classification is the result of walking the trie along a path prefix.
type Classification int

const (
	// Outside means no entry of the whitelist covers this prefix or
	// anything below it.
	Outside Classification = iota
	// Inside means this prefix, and everything below it, is kept whole.
	Inside
	// Partial means the prefix itself is not whitelisted but some
	// descendant might be; the caller must descend and classify entries
	// individually.
	Partial
)

func (c Classification) String() string {
	switch c {
	case Outside:
		return "outside"
	case Inside:
		return "inside"
	case Partial:
		return "partial"
	default:
		return "unknown"
	}
}

type node struct {
	children map[string]*node
	terminal bool
}

func (n *node) child(component string, create bool) *node {
	if c, ok := n.children[component]; ok {
		return c
	}
	if !create {
		return nil
	}
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	c := &node{}
	n.children[component] = c
	return c
}

// Filter is a compiled, immutable whitelist.
type Filter struct {
	root        *node
	fingerprint plumbing.Hash
}

// New compiles patterns (already split into path-component slices, e.g.
// ["src", "main.go"]) into a Filter. Duplicate and overlapping patterns
// are harmless: a terminal node reached by a shorter pattern simply
// shadows any longer pattern below it.
func New(patterns [][]string) *Filter {
	root := &node{}
	for _, p := range patterns {
		n := root
		for _, component := range p {
			n = n.child(component, true)
		}
		n.terminal = true
	}
	return &Filter{root: root, fingerprint: fingerprintOf(patterns)}
}

// Classify walks the trie along prefix and returns its classification.
func (f *Filter) Classify(prefix []string) Classification {
	n := f.root
	for _, component := range prefix {
		if n.terminal {
			return Inside
		}
		next := n.child(component, false)
		if next == nil {
			return Outside
		}
		n = next
	}
	if n.terminal {
		return Inside
	}
	if len(n.children) > 0 {
		return Partial
	}
	return Outside
}

// Fingerprint is a stable content hash of the compiled pattern set. Two
// filters built from the same (order-independent) pattern list produce
// the same fingerprint; memos are valid only while it matches.
func (f *Filter) Fingerprint() plumbing.Hash {
	return f.fingerprint
}

// fingerprintOf hashes the sorted, canonicalized pattern list so pattern
// order and duplicate entries never affect filter identity.
func fingerprintOf(patterns [][]string) plumbing.Hash {
	canon := make([]string, 0, len(patterns))
	for _, p := range patterns {
		canon = append(canon, strings.Join(p, "/"))
	}
	sort.Strings(canon)
	h := plumbing.NewHasher()
	for i, s := range canon {
		if i > 0 && s == canon[i-1] {
			continue
		}
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0x00})
	}
	return h.Sum()
}

// SplitPath breaks a "/"-separated repository-root-relative path into
// components, the form Classify and New expect.
func SplitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
