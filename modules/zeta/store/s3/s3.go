// Package s3 implements a read-only store.ObjectStore over an S3-shaped
// object store: a cold-storage or archived mirror of a repository's
// loose objects, addressed the same way store/local lays them out
// ("aa/bb/aabbccdd...") under a configurable key prefix.
package s3

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
)

// Store is a read-only ObjectStore: WriteTree, WriteCommit, and SetRef
// all return store.ErrReadOnlyStore. A rewrite sourced from one must
// target a writable destination store (store/local).
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ store.ObjectStore = (*Store)(nil)

// Open dials the default AWS credential chain (environment, shared
// config, EC2/ECS role) and returns a Store reading bucket/prefix.
func Open(ctx context.Context, bucket, prefix, region string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("zeta-subset: load aws config: %w", err)
	}
	return &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (s *Store) key(oid plumbing.Hash) string {
	encoded := oid.String()
	return path.Join(s.prefix, encoded[:2], encoded[2:4], encoded)
}

func (s *Store) object(ctx context.Context, oid plumbing.Hash) (any, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(oid)),
	})
	if err != nil {
		return nil, plumbing.NoSuchObject(oid)
	}
	defer out.Body.Close()
	return object.Decode(out.Body, oid, s)
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

func (s *Store) WriteTree(ctx context.Context, t *object.Tree) (plumbing.Hash, error) {
	return plumbing.ZeroHash, store.ErrReadOnlyStore
}

func (s *Store) WriteCommit(ctx context.Context, c *object.Commit) (plumbing.Hash, error) {
	return plumbing.ZeroHash, store.ErrReadOnlyStore
}

// ResolveRev only accepts a hex object id: a bucket mirror carries no ref
// namespace of its own.
func (s *Store) ResolveRev(ctx context.Context, revspec string) (plumbing.Hash, error) {
	if !plumbing.ValidateHashHex(revspec) {
		return plumbing.ZeroHash, fmt.Errorf("zeta-subset: s3 store cannot resolve non-hash rev %q", revspec)
	}
	return plumbing.NewHash(revspec), nil
}

func (s *Store) SetRef(ctx context.Context, name plumbing.ReferenceName, id plumbing.Hash, allowOverwrite bool) error {
	return store.ErrReadOnlyStore
}
