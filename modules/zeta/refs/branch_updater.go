// Copyright 2018 Sourced Technologies, S.L.
// SPDX-License-Identifier: Apache-2.0

// Package refs implements the atomic compare-and-swap update of a single
// branch reference at the end of a rewrite run, following the same
// lockfile protocol a full reference database uses for every ref: create
// "<ref>.lock" exclusively, verify the ref still points at the expected
// old value, write the new value, then rename the lock over the ref.
package refs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

// Backend resolves and atomically updates branch references rooted at a
// single repository directory (an on-disk loose-ref layout: one file per
// ref under refs/heads/...).
type Backend interface {
	Reference(name plumbing.ReferenceName) (*plumbing.Reference, error)
	ReferenceUpdate(r, old *plumbing.Reference) error
}

type fsBackend struct {
	repoPath string
}

// NewBackend returns a Backend rooted at repoPath, the ".zeta" metadata
// directory of the repository whose branch is being rewritten.
func NewBackend(repoPath string) Backend {
	return &fsBackend{repoPath: repoPath}
}

func (b *fsBackend) refPath(name plumbing.ReferenceName) string {
	return filepath.Join(b.repoPath, filepath.FromSlash(string(name)))
}

func (b *fsBackend) Reference(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	p := b.refPath(name)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plumbing.ErrReferenceNotFound
		}
		return nil, err
	}
	line := strings.TrimSpace(string(data))
	return plumbing.NewReferenceFromStrings(string(name), line), nil
}

func (b *fsBackend) checkReference(old *plumbing.Reference) error {
	if old == nil {
		return nil
	}
	ref, err := b.Reference(old.Name())
	if err != nil {
		return err
	}
	if ref.Hash() != old.Hash() {
		return &plumbing.ErrRefChanged{Name: old.Name(), Expected: old.Hash(), Actual: ref.Hash()}
	}
	return nil
}

func openNotExists(name string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_RDWR|os.O_TRUNC, 0644)
}

// ReferenceUpdate writes r, failing with *plumbing.ErrRefChanged if the
// ref's current value does not match old. With old == nil the prior
// value is not checked and an existing ref is overwritten.
func (b *fsBackend) ReferenceUpdate(r, old *plumbing.Reference) error {
	var content string
	switch r.Type() {
	case plumbing.SymbolicReference:
		content = "ref: " + string(r.Target()) + "\n"
	case plumbing.HashReference:
		content = r.Hash().String() + "\n"
	}
	fileName := b.refPath(r.Name())
	lockName := fileName + ".lock"
	fd, err := openNotExists(lockName)
	if err != nil {
		if os.IsExist(err) {
			return plumbing.NewErrResourceLocked(r.Name())
		}
		return err
	}
	defer func() {
		_ = os.Remove(lockName)
	}()
	if err := b.checkReference(old); err != nil {
		_ = fd.Close()
		return err
	}
	if _, err := fd.WriteString(content); err != nil {
		_ = fd.Close()
		return err
	}
	if err := fd.Close(); err != nil {
		return err
	}
	return os.Rename(lockName, fileName)
}
