// Package object implements the two object kinds a rewrite run touches
// directly: commits and trees (blobs are carried through by reference
// only, never decoded). Encoding is byte-compatible with the zeta object
// database: a 4-byte magic prefix followed by a type-specific body,
// optionally wrapped in a zstd frame.
package object

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/streamio"
)

var ErrUnsupportedObject = errors.New("zeta-subset: unsupported object type")

type ObjectType int8

const (
	InvalidObject ObjectType = 0
	CommitObject  ObjectType = 1
	TreeObject    ObjectType = 2
	BlobObject    ObjectType = 3
)

func (t ObjectType) String() string {
	switch t {
	case CommitObject:
		return "commit"
	case TreeObject:
		return "tree"
	case BlobObject:
		return "blob"
	default:
		return "unknown"
	}
}

func (t ObjectType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ObjectType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "tree":
		*t = TreeObject
	case "commit":
		*t = CommitObject
	case "blob":
		*t = BlobObject
	default:
		*t = InvalidObject
	}
	return nil
}

// Reader is a tagged io.Reader: it knows the oid and type of the object
// being decoded from it, for use by Commit.Decode/Tree.Decode.
type Reader interface {
	io.Reader
	Hash() plumbing.Hash
	Type() ObjectType
}

type reader struct {
	io.Reader
	hash       plumbing.Hash
	objectType ObjectType
}

func (r *reader) Hash() plumbing.Hash { return r.hash }
func (r *reader) Type() ObjectType    { return r.objectType }

// ZstandardMagic is the zstd frame magic number, used to detect whether an
// object was stored compressed.
const ZstandardMagic = 0xFD2FB528

func isZstandardMagic(magic [4]byte) bool {
	return binary.LittleEndian.Uint32(magic[:]) == ZstandardMagic
}

// Decode reads one object (commit or tree) from r, transparently
// unwrapping a zstd frame if present, and dispatches on the magic prefix.
func Decode(r io.Reader, oid plumbing.Hash, b Backend) (any, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if isZstandardMagic(magic) {
		zr, err := streamio.GetZstdReader(io.MultiReader(bytes.NewReader(magic[:]), r))
		if err != nil {
			return nil, err
		}
		defer streamio.PutZstdReader(zr)
		r = zr
		if _, err := io.ReadFull(r, magic[:]); err != nil {
			return nil, err
		}
	}
	switch {
	case bytes.Equal(magic[:], COMMIT_MAGIC[:]):
		c := &Commit{b: b}
		return c, c.Decode(&reader{Reader: r, hash: oid, objectType: CommitObject})
	case bytes.Equal(magic[:], TREE_MAGIC[:]):
		tr := &Tree{b: b}
		return tr, tr.Decode(&reader{Reader: r, hash: oid, objectType: TreeObject})
	default:
		return nil, ErrUnsupportedObject
	}
}

type Encoder interface {
	Encode(io.Writer) error
}

// Hash computes the content hash an object would have once encoded,
// without requiring it to already exist in a store.
func Hash(e Encoder) plumbing.Hash {
	h := plumbing.NewHasher()
	if err := e.Encode(h); err != nil {
		return plumbing.ZeroHash
	}
	return h.Sum()
}
