// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package local implements store.ObjectStore as a loose-object disk
// store: one zstd-compressed, content-addressed file per object, fanned
// out two levels deep ("aa/bb/aabbccdd...") the way the teacher's object
// database lays out its metadata store, with a ristretto read-through
// cache sitting in front of decode.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/streamio"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/refs"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
)

const incomingDir = "incoming"

// Store is a disk-resident ObjectStore rooted at a ".zeta" metadata
// directory: <root>/objects holds loose objects, <root>/incoming holds
// temp files awaiting atomic rename, <root>/refs holds branch refs.
type Store struct {
	root       string
	objectsDir string

	refBackend refs.Backend

	mu    sync.RWMutex
	cache *ristretto.Cache[string, any]
}

var _ store.ObjectStore = (*Store)(nil)

// Option configures a Store at construction time.
type Option func(*Store)

// WithCacheDisabled skips ristretto entirely, useful for tests that want
// exact read counts.
func WithCacheDisabled() Option {
	return func(s *Store) { s.cache = nil }
}

// Open prepares a Store rooted at root, creating its objects/incoming
// subdirectories if absent.
func Open(root string, opts ...Option) (*Store, error) {
	objectsDir := filepath.Join(root, "objects")
	incoming := filepath.Join(root, incomingDir)
	if err := os.MkdirAll(objectsDir, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(incoming, 0755); err != nil {
		return nil, err
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: 100_000,
		MaxCost:     100_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	s := &Store{
		root:       root,
		objectsDir: objectsDir,
		refBackend: refs.NewBackend(root),
		cache:      cache,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Store) path(oid plumbing.Hash) string {
	encoded := oid.String()
	return filepath.Join(s.objectsDir, encoded[:2], encoded[2:4], encoded)
}

func (s *Store) object(ctx context.Context, oid plumbing.Hash) (any, error) {
	if s.cache != nil {
		if a, ok := s.cache.Get(oid.String()); ok {
			return a, nil
		}
	}
	s.mu.RLock()
	fd, err := os.Open(s.path(oid))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plumbing.NoSuchObject(oid)
		}
		return nil, err
	}
	defer fd.Close()
	a, err := object.Decode(fd, oid, s)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(oid.String(), a, 1)
	}
	return a, nil
}

func (s *Store) Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error) {
	a, err := s.object(ctx, oid)
	if err != nil {
		return nil, err
	}
	c, ok := a.(*object.Commit)
	if !ok {
		return nil, fmt.Errorf("zeta-subset: object %s is not a commit", oid)
	}
	return c, nil
}

func (s *Store) Tree(ctx context.Context, oid plumbing.Hash) (*object.Tree, error) {
	a, err := s.object(ctx, oid)
	if err != nil {
		return nil, err
	}
	t, ok := a.(*object.Tree)
	if !ok {
		return nil, fmt.Errorf("zeta-subset: object %s is not a tree", oid)
	}
	return t, nil
}

// write encodes e, zstd-compresses it behind the object magic prefix
// object.Decode expects, and atomically installs it under its content
// hash. Writing an object that already exists is a cheap no-op collision
// (the same bytes land at the same path).
func (s *Store) write(e object.Encoder) (plumbing.Hash, error) {
	fd, err := os.CreateTemp(filepath.Join(s.root, incomingDir), "obj")
	if err != nil {
		return plumbing.ZeroHash, err
	}
	incomingPath := fd.Name()
	defer func() {
		_ = os.Remove(incomingPath)
	}()

	hasher := plumbing.NewHasher()
	var plain = &plainBuffer{}
	if err := e.Encode(io.MultiWriter(hasher, plain)); err != nil {
		_ = fd.Close()
		return plumbing.ZeroHash, err
	}
	zw := streamio.GetZstdWriter(fd)
	if _, err := zw.Write(plain.b); err != nil {
		streamio.PutZstdWriter(zw)
		_ = fd.Close()
		return plumbing.ZeroHash, err
	}
	streamio.PutZstdWriter(zw)
	if err := fd.Sync(); err != nil {
		_ = fd.Close()
		return plumbing.ZeroHash, err
	}
	if err := fd.Close(); err != nil {
		return plumbing.ZeroHash, err
	}

	oid := hasher.Sum()
	objectPath := s.path(oid)
	if err := os.MkdirAll(filepath.Dir(objectPath), 0755); err != nil {
		return plumbing.ZeroHash, err
	}
	s.mu.Lock()
	err = os.Rename(incomingPath, objectPath)
	s.mu.Unlock()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	incomingPath = "" // already moved, nothing left for the deferred cleanup
	return oid, nil
}

type plainBuffer struct{ b []byte }

func (p *plainBuffer) Write(b []byte) (int, error) {
	p.b = append(p.b, b...)
	return len(b), nil
}

func (s *Store) WriteTree(ctx context.Context, t *object.Tree) (plumbing.Hash, error) {
	oid, err := s.write(t)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if s.cache != nil {
		t.Hash = oid
		s.cache.Set(oid.String(), t.WithBackend(s), 1)
	}
	return oid, nil
}

func (s *Store) WriteCommit(ctx context.Context, c *object.Commit) (plumbing.Hash, error) {
	oid, err := s.write(c)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if s.cache != nil {
		c.Hash = oid
		s.cache.Set(oid.String(), c.WithBackend(s), 1)
	}
	return oid, nil
}

func (s *Store) ResolveRev(ctx context.Context, revspec string) (plumbing.Hash, error) {
	if plumbing.ValidateHashHex(revspec) {
		return plumbing.NewHash(revspec), nil
	}
	ref, err := s.refBackend.Reference(plumbing.NewBranchReferenceName(revspec))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

func (s *Store) SetRef(ctx context.Context, name plumbing.ReferenceName, id plumbing.Hash, allowOverwrite bool) error {
	existing, err := s.refBackend.Reference(name)
	switch {
	case err == nil:
		if !allowOverwrite {
			return store.ErrBranchExists
		}
		return s.refBackend.ReferenceUpdate(plumbing.NewHashReference(name, id), existing)
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return s.refBackend.ReferenceUpdate(plumbing.NewHashReference(name, id), nil)
	default:
		return err
	}
}

// Close releases the decode cache. It does not close anything on disk.
func (s *Store) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	return nil
}
