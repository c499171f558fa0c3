// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package memo

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

var fileMagic = [4]byte{'Z', 'M', 'M', 'O'}

const fileVersion byte = 1

const (
	kindTree   byte = 1
	kindCommit byte = 2
)

const (
	tagDropped byte = 0
	tagMapped  byte = 1
)

const headerLen = 4 + 1 + 1 + plumbing.HASH_DIGEST_SIZE

// FileStore persists TreeMemo and CommitMemo as two sibling binary files
// under dir, one per mapping, each headed by magic bytes, a format
// version, a kind byte, and the PathFilter fingerprint that produced it.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) treesPath() string   { return filepath.Join(s.dir, "trees.memo") }
func (s *FileStore) commitsPath() string { return filepath.Join(s.dir, "commits.memo") }

var _ Store = (*FileStore)(nil)

func (s *FileStore) Load(ctx context.Context, fingerprint plumbing.Hash, trees, commits *Table) (bool, error) {
	okTrees := loadTable(s.treesPath(), kindTree, fingerprint, trees)
	okCommits := loadTable(s.commitsPath(), kindCommit, fingerprint, commits)
	if !okTrees || !okCommits {
		trees.Reset()
		commits.Reset()
		return false, nil
	}
	return true, nil
}

// loadTable reports whether path held a well-formed, fingerprint-matching
// memo for kind. Any failure - missing file, bad magic, version mismatch,
// fingerprint mismatch, truncated entry - is reported as false, never as
// an error: per the engine's CorruptMemo policy this degrades silently to
// "start with empty memos."
func loadTable(path string, kind byte, fingerprint plumbing.Hash, t *Table) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(br, header); err != nil {
		return false
	}
	if !bytes.Equal(header[0:4], fileMagic[:]) || header[4] != fileVersion || header[5] != kind {
		return false
	}
	var fp plumbing.Hash
	copy(fp[:], header[6:6+plumbing.HASH_DIGEST_SIZE])
	if fp != fingerprint {
		return false
	}

	for {
		var srcBytes [plumbing.HASH_DIGEST_SIZE]byte
		if _, err := io.ReadFull(br, srcBytes[:]); err != nil {
			if err == io.EOF {
				break
			}
			return false
		}
		tag, err := br.ReadByte()
		if err != nil {
			return false
		}
		var src plumbing.Hash
		copy(src[:], srcBytes[:])
		switch tag {
		case tagDropped:
			t.PutIfAbsent(src, Entry{Mapped: false})
		case tagMapped:
			var dstBytes [plumbing.HASH_DIGEST_SIZE]byte
			if _, err := io.ReadFull(br, dstBytes[:]); err != nil {
				return false
			}
			var dst plumbing.Hash
			copy(dst[:], dstBytes[:])
			t.PutIfAbsent(src, Entry{Mapped: true, Target: dst})
		default:
			return false
		}
	}
	return true
}

func (s *FileStore) Save(ctx context.Context, fingerprint plumbing.Hash, trees, commits *Table) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	if err := saveTable(s.dir, s.treesPath(), kindTree, fingerprint, trees); err != nil {
		return err
	}
	return saveTable(s.dir, s.commitsPath(), kindCommit, fingerprint, commits)
}

// saveTable writes to a temp file in dir, fsyncs, then renames over path,
// so a crash mid-write never leaves a corrupt memo in place of a good one.
func saveTable(dir, path string, kind byte, fingerprint plumbing.Hash, t *Table) (err error) {
	tmp, err := os.CreateTemp(dir, "memo")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if _, err = bw.Write(fileMagic[:]); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = bw.WriteByte(fileVersion); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = bw.WriteByte(kind); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err = bw.Write(fingerprint[:]); err != nil {
		_ = tmp.Close()
		return err
	}

	t.Range(func(src plumbing.Hash, entry Entry) bool {
		if _, err = bw.Write(src[:]); err != nil {
			return false
		}
		if !entry.Mapped {
			err = bw.WriteByte(tagDropped)
			return err == nil
		}
		if err = bw.WriteByte(tagMapped); err != nil {
			return false
		}
		_, err = bw.Write(entry.Target[:])
		return err == nil
	})
	if err != nil {
		_ = tmp.Close()
		return err
	}
	if err = bw.Flush(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return err
	}
	tmpPath = ""
	return nil
}
