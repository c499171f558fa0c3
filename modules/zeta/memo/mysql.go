// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package memo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/zeta-vcs/zeta-subset/modules/plumbing"
)

// MySQLStore persists TreeMemo/CommitMemo in a two-table schema
// (tree_memo, commit_memo), each row keyed by (filter_fingerprint,
// source_oid). A shared SQL table, unlike FileStore's on-disk format,
// survives across many short-lived CI workers that each run the rewrite
// against the same repository.
type MySQLStore struct {
	db *sql.DB
}

// OpenMySQLStore opens a connection pool sized for many short-lived
// rewrite invocations sharing one memo.
func OpenMySQLStore(cfg *mysql.Config) (*MySQLStore, error) {
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("zeta-subset: new mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS tree_memo (
	filter_fingerprint CHAR(64) NOT NULL,
	source_oid CHAR(64) NOT NULL,
	mapped TINYINT NOT NULL,
	target_oid CHAR(64) NOT NULL,
	PRIMARY KEY (filter_fingerprint, source_oid)
);
CREATE TABLE IF NOT EXISTS commit_memo (
	filter_fingerprint CHAR(64) NOT NULL,
	source_oid CHAR(64) NOT NULL,
	mapped TINYINT NOT NULL,
	target_oid CHAR(64) NOT NULL,
	PRIMARY KEY (filter_fingerprint, source_oid)
);
`

// Migrate creates the tree_memo/commit_memo tables if they do not exist.
func (s *MySQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var _ Store = (*MySQLStore)(nil)

func (s *MySQLStore) Load(ctx context.Context, fingerprint plumbing.Hash, trees, commits *Table) (bool, error) {
	if err := loadMySQLTable(ctx, s.db, "tree_memo", fingerprint, trees); err != nil {
		return false, err
	}
	if err := loadMySQLTable(ctx, s.db, "commit_memo", fingerprint, commits); err != nil {
		return false, err
	}
	return trees.Len() > 0 || commits.Len() > 0, nil
}

func loadMySQLTable(ctx context.Context, db *sql.DB, table string, fingerprint plumbing.Hash, t *Table) error {
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT source_oid, mapped, target_oid FROM %s WHERE filter_fingerprint = ?", table),
		fingerprint.String())
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var srcHex, dstHex string
		var mapped bool
		if err := rows.Scan(&srcHex, &mapped, &dstHex); err != nil {
			return err
		}
		entry := Entry{Mapped: mapped}
		if mapped {
			entry.Target = plumbing.NewHash(dstHex)
		}
		t.PutIfAbsent(plumbing.NewHash(srcHex), entry)
	}
	return rows.Err()
}

func (s *MySQLStore) Save(ctx context.Context, fingerprint plumbing.Hash, trees, commits *Table) error {
	if err := saveMySQLTable(ctx, s.db, "tree_memo", fingerprint, trees); err != nil {
		return err
	}
	return saveMySQLTable(ctx, s.db, "commit_memo", fingerprint, commits)
}

func saveMySQLTable(ctx context.Context, db *sql.DB, table string, fingerprint plumbing.Hash, t *Table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (filter_fingerprint, source_oid, mapped, target_oid) VALUES (?, ?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE mapped = VALUES(mapped), target_oid = VALUES(target_oid)", table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	var execErr error
	t.Range(func(src plumbing.Hash, entry Entry) bool {
		_, execErr = stmt.ExecContext(ctx, fingerprint.String(), src.String(), entry.Mapped, entry.Target.String())
		return execErr == nil
	})
	if execErr != nil {
		return execErr
	}
	return tx.Commit()
}
