// Package subset is the library half of zeta-subset: it wires a
// PathFilter, an ObjectStore pair, a MemoStore, and the rewrite engine
// together into a single Run call, exactly as pkg/migrate wires
// together the teacher's git-to-zeta import for cmd/zeta-mc.
package subset

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/zeta-vcs/zeta-subset/modules/pathfilter"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/config"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/memo"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/object"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/rewrite"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store/composite"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store/local"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store/memstore"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/store/s3"
	"github.com/zeta-vcs/zeta-subset/pkg/progress"
	"github.com/zeta-vcs/zeta-subset/pkg/statusserver"
)

// SourceSpec selects where history is read from.
type SourceSpec struct {
	// LocalRoot, if set, opens a store/local at this path read-write and
	// also serves as Dest when DestRoot is empty (the common, same-store
	// case).
	LocalRoot string
	// S3Bucket, S3Prefix, S3Region select a read-only store/s3 source.
	// Set together; DestRoot must be set too, since S3 cannot be written.
	S3Bucket, S3Prefix, S3Region string
}

// Request describes one rewrite run end to end.
type Request struct {
	Source SourceSpec
	// DestRoot is the destination store/local path. Required when Source
	// is S3; optional (defaults to Source.LocalRoot) otherwise.
	DestRoot string
	// Revision is resolved against the source store to find the starting
	// commit.
	Revision string
	// Patterns is the whitelist, already parsed into path-component form.
	Patterns [][]string
	// Branch is the destination ref landed on success.
	Branch plumbing.ReferenceName
	// AllowOverwrite lets Branch already point somewhere else.
	AllowOverwrite bool
	// EmitEmptyRoot controls the engine's empty-history policy.
	EmitEmptyRoot bool
	// DryRun runs the walk and classifies every commit without writing
	// any object or moving Branch.
	DryRun bool
	// NoMemo disables the persisted memo entirely (--nomap): every run
	// starts cold and nothing is saved.
	NoMemo bool
	// Quiet suppresses the progress bars and summary line.
	Quiet bool
	// Parallel caps concurrent commit dispatch; 1 or 0 keeps the
	// single-threaded schedule.
	Parallel int
	// Status, if set, is kept up to date with the run's phase and
	// counters so an operator HTTP surface can report on it concurrently.
	Status *statusserver.Server
	Config *config.Config
}

// Result reports what a Run produced.
type Result struct {
	Head       plumbing.Hash
	Discovered int
	Rewritten  int
	Collapsed  int
	Elapsed    time.Duration
}

// Run executes one rewrite end to end: open the source/destination
// stores, resolve the memo backend, build the engine, walk the history,
// and - unless DryRun - land Branch on the rewritten head.
func Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}

	source, dest, closeStores, err := openStores(ctx, req)
	if err != nil {
		return Result{}, err
	}
	defer closeStores()

	var rwStore store.ObjectStore = source
	if dest != source {
		rwStore = &composite.ReadThrough{Source: source, Dest: dest}
	}

	filter := pathfilter.New(req.Patterns)
	memStore, closeMemo, err := openMemoStore(cfg, req.NoMemo)
	if err != nil {
		return Result{}, err
	}
	defer closeMemo()

	treeMemo, commitMemo := memo.NewTable(), memo.NewTable()
	engine := rewrite.NewEngine(rwStore, filter, treeMemo, commitMemo)

	hit, err := engine.LoadMemo(ctx, memStore, filter.Fingerprint())
	if err != nil {
		return Result{}, fmt.Errorf("zeta-subset: load memo: %w", err)
	}
	logrus.WithFields(logrus.Fields{"phase": "load-memo", "hit": hit}).Debug("memo loaded")

	head, err := source.ResolveRev(ctx, req.Revision)
	if err != nil {
		return Result{}, fmt.Errorf("zeta-subset: resolve %q: %w", req.Revision, err)
	}

	reporter := progress.NewReporter(req.Quiet)
	bar := reporter.Phase("rewrite", 0)
	if req.Status != nil {
		req.Status.SetPhase("rewrite")
	}

	var discovered, rewritten, collapsed int
	runEngine := engine
	if req.DryRun {
		runEngine = rewrite.NewEngine(newDryRunStore(rwStore), filter, treeMemo, commitMemo)
	}

	newHead, err := runEngine.Run(ctx, head, rewrite.Options{
		Branch:         req.Branch,
		AllowOverwrite: req.AllowOverwrite,
		EmitEmptyRoot:  req.EmitEmptyRoot,
		Parallel:       req.Parallel,
		OnCommit: func(src plumbing.Hash, result rewrite.CommitResult) {
			discovered++
			if result.Dropped {
				collapsed++
			} else {
				rewritten++
			}
			bar.Increment()
			if req.Status != nil {
				req.Status.Report(discovered, rewritten, collapsed)
			}
			logrus.WithFields(logrus.Fields{
				"commit":  src.String(),
				"target":  result.ID.String(),
				"dropped": result.Dropped,
				"phase":   "rewrite",
			}).Debug("commit rewritten")
		},
	})
	if req.Status != nil {
		req.Status.SetPhase("done")
	}
	bar.Done()
	reporter.Wait()
	if err != nil {
		return Result{}, err
	}

	if !req.DryRun && !req.NoMemo {
		if err := engine.SaveMemo(ctx, memStore, filter.Fingerprint()); err != nil {
			return Result{}, fmt.Errorf("zeta-subset: save memo: %w", err)
		}
	}

	result := Result{
		Head:       newHead,
		Discovered: discovered,
		Rewritten:  rewritten,
		Collapsed:  collapsed,
		Elapsed:    time.Since(start),
	}
	progress.Summary{
		Discovered: result.Discovered,
		Rewritten:  result.Rewritten,
		Collapsed:  result.Collapsed,
		Elapsed:    result.Elapsed,
	}.Fprint(req.Quiet)
	return result, nil
}

func openStores(ctx context.Context, req Request) (source, dest store.ObjectStore, closeFn func(), err error) {
	closeFn = func() {}
	switch {
	case req.Source.S3Bucket != "":
		s, err := s3.Open(ctx, req.Source.S3Bucket, req.Source.S3Prefix, req.Source.S3Region)
		if err != nil {
			return nil, nil, closeFn, fmt.Errorf("zeta-subset: open s3 source: %w", err)
		}
		if req.DestRoot == "" {
			return nil, nil, closeFn, fmt.Errorf("zeta-subset: an s3 source requires a local destination")
		}
		d, err := local.Open(req.DestRoot)
		if err != nil {
			return nil, nil, closeFn, fmt.Errorf("zeta-subset: open destination: %w", err)
		}
		return s, d, closeFn, nil
	case req.Source.LocalRoot != "":
		l, err := local.Open(req.Source.LocalRoot)
		if err != nil {
			return nil, nil, closeFn, fmt.Errorf("zeta-subset: open source: %w", err)
		}
		if req.DestRoot == "" || req.DestRoot == req.Source.LocalRoot {
			return l, l, closeFn, nil
		}
		d, err := local.Open(req.DestRoot)
		if err != nil {
			return nil, nil, closeFn, fmt.Errorf("zeta-subset: open destination: %w", err)
		}
		return l, d, closeFn, nil
	default:
		return nil, nil, closeFn, fmt.Errorf("zeta-subset: no source store configured")
	}
}

// openMemoStore resolves the memo backend per config.4's DSN-selects-MySQL
// precedence, falling back to the file backend under cfg.MemoDir.
func openMemoStore(cfg *config.Config, noMemo bool) (memo.Store, func(), error) {
	noop := func() {}
	if noMemo {
		return memo.Noop{}, noop, nil
	}
	if cfg.MemoDSN != "" {
		dsnCfg, err := mysql.ParseDSN(cfg.MemoDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("zeta-subset: parse memo dsn: %w", err)
		}
		s, err := memo.OpenMySQLStore(dsnCfg)
		if err != nil {
			return nil, noop, fmt.Errorf("zeta-subset: open mysql memo store: %w", err)
		}
		if err := s.Migrate(context.Background()); err != nil {
			_ = s.Close()
			return nil, noop, fmt.Errorf("zeta-subset: migrate memo schema: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	}
	if err := os.MkdirAll(cfg.MemoDir, 0755); err != nil {
		return nil, noop, fmt.Errorf("zeta-subset: create memo dir: %w", err)
	}
	return memo.NewFileStore(cfg.MemoDir), noop, nil
}

// dryRunStore reads through to a real store but sends every write to a
// throwaway in-memory store instead: CommitRewriter's collapse rule
// still needs a real content hash to compare roots against, but a dry
// run must never touch the destination or its ref.
type dryRunStore struct {
	store.ObjectStore
	scratch *memstore.Store
}

func newDryRunStore(read store.ObjectStore) dryRunStore {
	return dryRunStore{ObjectStore: read, scratch: memstore.New()}
}

func (d dryRunStore) WriteTree(ctx context.Context, t *object.Tree) (plumbing.Hash, error) {
	return d.scratch.WriteTree(ctx, t)
}

func (d dryRunStore) WriteCommit(ctx context.Context, c *object.Commit) (plumbing.Hash, error) {
	return d.scratch.WriteCommit(ctx, c)
}

func (d dryRunStore) Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error) {
	if c, err := d.scratch.Commit(ctx, oid); err == nil {
		return c, nil
	}
	return d.ObjectStore.Commit(ctx, oid)
}

func (d dryRunStore) Tree(ctx context.Context, oid plumbing.Hash) (*object.Tree, error) {
	if t, err := d.scratch.Tree(ctx, oid); err == nil {
		return t, nil
	}
	return d.ObjectStore.Tree(ctx, oid)
}

func (dryRunStore) SetRef(ctx context.Context, name plumbing.ReferenceName, id plumbing.Hash, allowOverwrite bool) error {
	return nil
}
