// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config supplies defaults for the rewrite engine's ambient
// concerns (object compression, memo location, status-server bind
// address, pipelining width) that CLI flags are free to override.
// Resolution order is flag > environment > repository-local
// ".zeta/subset.toml" > built-in default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Compression names a compression method for objects written by a
// store.ObjectStore, mirroring the teacher's STORE/ZSTD method byte.
type Compression string

const (
	CompressionStore Compression = "store"
	CompressionZSTD  Compression = "zstd"
)

// Config is the resolved set of defaults for a single rewrite run.
type Config struct {
	Compression Compression `toml:"compression"`
	MemoDir     string      `toml:"memo_dir"`
	MemoDSN     string      `toml:"memo_dsn"`
	StatusAddr  string      `toml:"status_addr"`
	Concurrency int         `toml:"concurrency"`
}

// Default returns the built-in baseline, the bottom of the resolution
// order.
func Default() *Config {
	return &Config{
		Compression: CompressionZSTD,
		MemoDir:     ".zeta/subset-memo",
		StatusAddr:  "127.0.0.1:0",
		Concurrency: 1,
	}
}

// Overwrite merges non-zero fields of other onto c, other taking
// precedence. It is used to layer a higher-precedence source (environment,
// flags) on top of a lower one (built-in default, repo-local file).
func (c *Config) Overwrite(other *Config) {
	if other == nil {
		return
	}
	if other.Compression != "" {
		c.Compression = other.Compression
	}
	if other.MemoDir != "" {
		c.MemoDir = other.MemoDir
	}
	if other.MemoDSN != "" {
		c.MemoDSN = other.MemoDSN
	}
	if other.StatusAddr != "" {
		c.StatusAddr = other.StatusAddr
	}
	if other.Concurrency != 0 {
		c.Concurrency = other.Concurrency
	}
}

// repoConfigPath is the repository-local config file, relative to the
// repository's metadata directory.
const repoConfigPath = "subset.toml"

// loadRepoLocal decodes <zetaDir>/subset.toml, returning an empty Config
// (not an error) when the file does not exist.
func loadRepoLocal(zetaDir string) (*Config, error) {
	c := &Config{}
	path := filepath.Join(zetaDir, repoConfigPath)
	if _, err := toml.DecodeFile(path, c); err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("zeta-subset: decode %s: %w", path, err)
	}
	return c, nil
}

func loadEnv() *Config {
	c := &Config{}
	if v := os.Getenv("ZETA_SUBSET_COMPRESSION"); v != "" {
		c.Compression = Compression(v)
	}
	if v := os.Getenv("ZETA_SUBSET_MEMO_DIR"); v != "" {
		c.MemoDir = v
	}
	if v := os.Getenv("ZETA_SUBSET_MEMO_DSN"); v != "" {
		c.MemoDSN = v
	}
	if v := os.Getenv("ZETA_SUBSET_STATUS_ADDR"); v != "" {
		c.StatusAddr = v
	}
	return c
}

// Load resolves a Config for a rewrite run rooted at zetaDir (a
// repository's metadata directory), layering built-in defaults,
// repository-local configuration, and the environment, in that order.
// Callers apply CLI flags as a final Overwrite on the returned Config.
func Load(zetaDir string) (*Config, error) {
	c := Default()
	repoLocal, err := loadRepoLocal(zetaDir)
	if err != nil {
		return nil, err
	}
	c.Overwrite(repoLocal)
	c.Overwrite(loadEnv())
	return c, nil
}
