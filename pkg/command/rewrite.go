package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zeta-vcs/zeta-subset/modules/pathfilter"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/config"
	"github.com/zeta-vcs/zeta-subset/modules/zeta/rewrite"
	"github.com/zeta-vcs/zeta-subset/pkg/statusserver"
	"github.com/zeta-vcs/zeta-subset/pkg/subset"
)

// Rewrite is the default command: rewrite a zeta history down to a
// whitelisted set of paths and land the result on a branch.
type Rewrite struct {
	Revspec string `arg:"" optional:"" default:"HEAD" help:"Revision to rewrite (branch name or object id)"`

	Branch     string   `name:"branch" short:"b" required:"" help:"Destination branch the rewritten history is landed on"`
	FilterFile []string `name:"filter-file" type:"path" help:"Read whitelist patterns from PATH (repeatable, unioned with --path)"`
	Path       []string `name:"path" short:"p" help:"Whitelist PATH (repeatable, unioned with --filter-file)"`
	Force      bool     `name:"force" short:"f" help:"Allow overwriting an existing destination branch"`
	NoMemo     bool     `name:"nomap" help:"Disable MemoStore load/save; always start cold"`
	Quiet      bool     `name:"quiet" short:"q" help:"Operate quietly; suppress progress bars and the summary line"`
	Repo       string   `name:"repo" short:"r" type:"path" default:"." help:"Path to the repository's local object store"`

	Dest     string `name:"dest" type:"path" help:"Destination object store path, when it differs from --repo (required with --s3-bucket)"`
	S3Bucket string `name:"s3-bucket" help:"Read the source history from this S3 bucket instead of --repo"`
	S3Prefix string `name:"s3-prefix" help:"Key prefix for objects within --s3-bucket"`
	S3Region string `name:"s3-region" help:"AWS region for --s3-bucket"`

	Parallel       int  `name:"parallel" help:"Number of commits to rewrite concurrently"`
	AllowEmptyRoot bool `name:"allow-empty-root" default:"true" negatable:"" help:"Land the branch on a parentless empty-tree commit when the whole history prunes away, instead of failing"`
	DryRun         bool `name:"dry-run" help:"Classify every commit without writing objects or moving the branch"`

	Listen       string `name:"listen" help:"Bind an operator status/cancel HTTP server to ADDR while the rewrite runs"`
	CancelSecret string `name:"cancel-secret" help:"HMAC secret bearer tokens for POST /cancel on --listen must be signed with"`
}

func (c *Rewrite) loadPatterns() ([][]string, error) {
	var sources [][][]string
	for _, p := range c.FilterFile {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open filter file %s: %w", p, err)
		}
		patterns, err := pathfilter.ParsePatterns(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse filter file %s: %w", p, err)
		}
		sources = append(sources, patterns)
	}
	var fromFlags [][]string
	for _, p := range c.Path {
		fromFlags = append(fromFlags, pathfilter.SplitPath(strings.Trim(p, "/")))
	}
	sources = append(sources, fromFlags)
	return pathfilter.Union(sources...), nil
}

func (c *Rewrite) Run(g *Globals) error {
	patterns, err := c.loadPatterns()
	if err != nil {
		return &ErrExitCode{ExitCode: 1, Message: err.Error()}
	}
	if len(patterns) == 0 {
		return &ErrExitCode{ExitCode: 1, Message: "no whitelist patterns given (use --path or --filter-file)"}
	}

	cfg, err := config.Load(filepath.Join(c.Repo, ".zeta"))
	if err != nil {
		return &ErrExitCode{ExitCode: 2, Message: err.Error()}
	}
	if c.Parallel > 0 {
		cfg.Overwrite(&config.Config{Concurrency: c.Parallel})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var statusSrv *statusserver.Server
	if c.Listen != "" {
		statusSrv = statusserver.New(c.CancelSecret, cancel)
		go func() {
			if err := statusSrv.ListenAndServe(c.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Warn("status server stopped")
			}
		}()
		defer func() { _ = statusSrv.Close() }()
	}

	req := subset.Request{
		Source: subset.SourceSpec{
			LocalRoot: c.Repo,
			S3Bucket:  c.S3Bucket,
			S3Prefix:  c.S3Prefix,
			S3Region:  c.S3Region,
		},
		DestRoot:       c.Dest,
		Revision:       c.Revspec,
		Patterns:       patterns,
		Branch:         plumbing.ReferenceName(c.Branch),
		AllowOverwrite: c.Force,
		EmitEmptyRoot:  c.AllowEmptyRoot,
		DryRun:         c.DryRun,
		NoMemo:         c.NoMemo,
		Quiet:          c.Quiet,
		Parallel:       cfg.Concurrency,
		Status:         statusSrv,
		Config:         cfg,
	}

	if c.S3Bucket != "" && req.DestRoot == "" {
		return &ErrExitCode{ExitCode: 1, Message: "--dest is required when --s3-bucket is set"}
	}

	now := time.Now()
	result, err := subset.Run(ctx, req)
	if err != nil {
		if errors.Is(err, rewrite.ErrEmptyHistory) {
			return &ErrExitCode{ExitCode: 1, Message: err.Error()}
		}
		return &ErrExitCode{ExitCode: 2, Message: err.Error()}
	}
	g.DbgPrint("rewrite of %s -> %s: discovered=%d rewritten=%d collapsed=%d head=%s time spent: %v",
		c.Revspec, c.Branch, result.Discovered, result.Rewritten, result.Collapsed, result.Head, time.Since(now))
	return nil
}
