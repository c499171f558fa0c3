// Package memstore is a map-backed store.ObjectStore with no disk I/O,
// used as the test fixture for the rewrite engine and store/composite,
// and as pkg/subset's scratch store for dry runs.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
)

type Store struct {
	mu      sync.RWMutex
	commits map[plumbing.Hash]*object.Commit
	trees   map[plumbing.Hash]*object.Tree
	refs    map[plumbing.ReferenceName]plumbing.Hash
}

var _ store.ObjectStore = (*Store)(nil)

func New() *Store {
	return &Store{
		commits: make(map[plumbing.Hash]*object.Commit),
		trees:   make(map[plumbing.Hash]*object.Tree),
		refs:    make(map[plumbing.ReferenceName]plumbing.Hash),
	}
}

func (s *Store) Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commits[oid]
	if !ok {
		return nil, plumbing.NoSuchObject(oid)
	}
	return c.WithBackend(s), nil
}

func (s *Store) Tree(ctx context.Context, oid plumbing.Hash) (*object.Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trees[oid]
	if !ok {
		return nil, plumbing.NoSuchObject(oid)
	}
	return t.WithBackend(s), nil
}

func hashOf(e object.Encoder) (plumbing.Hash, []byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf); err != nil {
		return plumbing.ZeroHash, nil, err
	}
	hasher := plumbing.NewHasher()
	_, _ = hasher.Write(buf.Bytes())
	return hasher.Sum(), buf.Bytes(), nil
}

func (s *Store) WriteTree(ctx context.Context, t *object.Tree) (plumbing.Hash, error) {
	oid, _, err := hashOf(t)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Hash = oid
	s.trees[oid] = t
	return oid, nil
}

func (s *Store) WriteCommit(ctx context.Context, c *object.Commit) (plumbing.Hash, error) {
	oid, _, err := hashOf(c)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Hash = oid
	s.commits[oid] = c
	return oid, nil
}

func (s *Store) ResolveRev(ctx context.Context, revspec string) (plumbing.Hash, error) {
	if plumbing.ValidateHashHex(revspec) {
		return plumbing.NewHash(revspec), nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.refs[plumbing.NewBranchReferenceName(revspec)]
	if !ok {
		return plumbing.ZeroHash, plumbing.ErrReferenceNotFound
	}
	return id, nil
}

func (s *Store) SetRef(ctx context.Context, name plumbing.ReferenceName, id plumbing.Hash, allowOverwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.refs[name]; exists && !allowOverwrite {
		return store.ErrBranchExists
	}
	s.refs[name] = id
	return nil
}

// Ref returns the current target of name, for test assertions.
func (s *Store) Ref(name plumbing.ReferenceName) (plumbing.Hash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.refs[name]
	return id, ok
}

// PutTree inserts t directly without going through WriteTree's content
// addressing, for tests that need to seed a fixed oid.
func (s *Store) PutTree(oid plumbing.Hash, t *object.Tree) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Hash = oid
	s.trees[oid] = t
}

// PutCommit is PutTree's analogue for commits.
func (s *Store) PutCommit(oid plumbing.Hash, c *object.Commit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Hash = oid
	s.commits[oid] = c
}

func (s *Store) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("memstore{commits=%d trees=%d refs=%d}", len(s.commits), len(s.trees), len(s.refs))
}
