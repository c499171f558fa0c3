// Copyright 2018 Sourced Technologies, S.L.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing/filemode"
	"github.com/zeta-vcs/zeta-subset/modules/streamio"
)

var (
	TREE_MAGIC      = [4]byte{'Z', 'T', 0x00, 0x01}
	ErrMaxTreeDepth = errors.New("zeta-subset: maximum tree depth exceeded")
)

const (
	// BlobInlineMaxBytes bounds the small-file payload a tree entry may
	// carry inline instead of pointing at a separate blob object.
	BlobInlineMaxBytes = 4096
	maxTreeDepth        = 1024
)

type ErrDirectoryNotFound struct{ dir string }

func (e *ErrDirectoryNotFound) Error() string { return fmt.Sprintf("dir '%s' not found", e.dir) }

func IsErrDirectoryNotFound(err error) bool {
	_, ok := err.(*ErrDirectoryNotFound)
	return ok
}

type ErrEntryNotFound struct{ entry string }

func (e *ErrEntryNotFound) Error() string { return fmt.Sprintf("entry '%s' not found", e.entry) }

func IsErrEntryNotFound(err error) bool {
	_, ok := err.(*ErrEntryNotFound)
	return ok
}

// TreeEntry is one (name, mode, size, hash) row of a Tree, pointing at
// either a blob or a nested tree.
type TreeEntry struct {
	Name    string            `json:"name"`
	Size    int64             `json:"size"`
	Mode    filemode.FileMode `json:"mode"`
	Hash    plumbing.Hash     `json:"hash"`
	Payload []byte            `json:"-"`
}

func (e *TreeEntry) Clone() *TreeEntry {
	return &TreeEntry{Name: e.Name, Size: e.Size, Mode: e.Mode, Hash: e.Hash, Payload: bytes.Clone(e.Payload)}
}

func (e *TreeEntry) Equal(other *TreeEntry) bool {
	if (e == nil) != (other == nil) {
		return false
	}
	if e == nil {
		return true
	}
	return e.Name == other.Name && e.Hash == other.Hash && e.Mode == other.Mode
}

const (
	sIFMT  = filemode.FileMode(0170000)
	sIFREG = filemode.FileMode(0100000)
	sIFDIR = filemode.FileMode(0040000)
	sIFLNK = filemode.FileMode(0120000)
	sIFGIT = filemode.FileMode(0160000)
)

func (e *TreeEntry) Type() ObjectType {
	switch e.Mode &^ filemode.Fragments & sIFMT {
	case sIFREG, sIFLNK:
		return BlobObject
	case sIFDIR:
		return TreeObject
	case sIFGIT:
		return CommitObject
	default:
		return InvalidObject
	}
}

func (e *TreeEntry) IsDir() bool { return e.Mode&sIFMT == sIFDIR }

// SubtreeOrder sorts TreeEntry's the way the object database requires:
// lexicographic byte order, with directory names treated as if suffixed
// with "/" so they sort consistently relative to sibling files.
type SubtreeOrder []*TreeEntry

func (s SubtreeOrder) Len() int      { return len(s) }
func (s SubtreeOrder) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s SubtreeOrder) Less(i, j int) bool { return s.Name(i) < s.Name(j) }

func (s SubtreeOrder) Name(i int) string {
	e := s[i]
	if e.Type() == TreeObject {
		return e.Name + "/"
	}
	return e.Name + "\x00"
}

// Tree is a directory: an ordered list of entries, each naming a blob or
// a nested Tree.
type Tree struct {
	Hash    plumbing.Hash `json:"hash"`
	Entries []*TreeEntry  `json:"entries"`

	m map[string]*TreeEntry
	b Backend
}

func NewTree(entries []*TreeEntry) *Tree {
	sorted := append([]*TreeEntry(nil), entries...)
	sort.Sort(SubtreeOrder(sorted))
	return &Tree{Entries: sorted}
}

func (t *Tree) Entry(name string) (*TreeEntry, error) {
	if t.m == nil {
		t.buildMap()
	}
	e, ok := t.m[name]
	if !ok {
		return nil, &ErrEntryNotFound{entry: name}
	}
	return e, nil
}

func (t *Tree) buildMap() {
	t.m = make(map[string]*TreeEntry, len(t.Entries))
	for _, e := range t.Entries {
		t.m[e.Name] = e
	}
}

// Equal reports whether two trees would produce the same hash once encoded.
func (t *Tree) Equal(other *Tree) bool {
	if (t == nil) != (other == nil) {
		return false
	}
	if t == nil {
		return true
	}
	if len(t.Entries) != len(other.Entries) {
		return false
	}
	for i := range t.Entries {
		if !t.Entries[i].Equal(other.Entries[i]) {
			return false
		}
	}
	return true
}

func (t *Tree) Encode(w io.Writer) error {
	if _, err := w.Write(TREE_MAGIC[:]); err != nil {
		return err
	}
	for _, entry := range t.Entries {
		size := entry.Size
		if len(entry.Payload) > 0 {
			if size > BlobInlineMaxBytes {
				return fmt.Errorf("tree entry '%s' inline blob '%s' too large", t.Hash, entry.Hash)
			}
			size = -entry.Size
		}
		if _, err := fmt.Fprintf(w, "%o %d %s", entry.Mode, size, entry.Name); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0x00}); err != nil {
			return err
		}
		if _, err := w.Write(entry.Hash[:]); err != nil {
			return err
		}
		if len(entry.Payload) > 0 {
			if _, err := w.Write(entry.Payload); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tree) Decode(r Reader) error {
	if r.Type() != TreeObject {
		return ErrUnsupportedObject
	}
	t.Hash = r.Hash()
	br := streamio.GetBufioReader(r)
	defer streamio.PutBufioReader(br)

	t.Entries = nil
	for {
		str, err := br.ReadString(' ')
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		str = str[:len(str)-1]
		mode, err := filemode.New(str)
		if err != nil {
			return err
		}

		if str, err = br.ReadString(' '); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		size, err := strconv.ParseInt(str[:len(str)-1], 10, 64)
		if err != nil {
			return err
		}

		name, err := br.ReadString(0)
		if err != nil && err != io.EOF {
			return err
		}

		var hash plumbing.Hash
		if _, err := io.ReadFull(br, hash[:]); err != nil {
			return err
		}
		var payload []byte
		if size < 0 {
			size = -size
			if size > BlobInlineMaxBytes {
				return fmt.Errorf("tree entry '%s' inline blob '%s' too large", t.Hash, hash)
			}
			payload = make([]byte, size)
			if _, err := io.ReadFull(br, payload); err != nil {
				return err
			}
		}
		baseName := name[:len(name)-1]
		t.Entries = append(t.Entries, &TreeEntry{Name: baseName, Size: size, Mode: mode, Hash: hash, Payload: payload})
	}
	return nil
}

// resolveTree gets a tree from an object storer and decodes it.
func resolveTree(ctx context.Context, b Backend, h plumbing.Hash) (*Tree, error) {
	if b == nil {
		return nil, plumbing.NoSuchObject(h)
	}
	return b.Tree(ctx, h)
}

// WithBackend re-attaches a Backend to a Tree that was constructed or
// cached without one, mirroring how a cache layer re-backends a hit
// before handing it back out.
func (t *Tree) WithBackend(b Backend) *Tree {
	t.b = b
	return t
}
