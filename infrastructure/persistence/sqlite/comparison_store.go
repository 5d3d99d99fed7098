// Package sqlite stores comparisons in a single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"graphdiff/application/ports"
	"graphdiff/domain/comparison"
	"graphdiff/infrastructure/persistence/schema"
	apperrors "graphdiff/pkg/errors"
)

const ddl = `
CREATE TABLE IF NOT EXISTS comparisons (
	id            TEXT PRIMARY KEY,
	name1         TEXT NOT NULL,
	name2         TEXT NOT NULL,
	similarity    REAL NOT NULL,
	total_changes INTEGER NOT NULL,
	created_at    TEXT NOT NULL,
	created_unix  INTEGER NOT NULL,
	record        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS comparisons_created ON comparisons (created_unix DESC, id);
`

// ComparisonStore persists comparisons in SQLite
type ComparisonStore struct {
	db    *sql.DB
	codec *schema.Codec
}

// NewComparisonStore opens or creates the database at path
func NewComparisonStore(path string) (*ComparisonStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.NewStoreError("init", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStoreError("init", err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", ddl} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, apperrors.NewStoreError("init", fmt.Errorf("apply schema: %w", err))
		}
	}

	return &ComparisonStore{db: db, codec: schema.NewCodec(true)}, nil
}

// Put inserts or replaces a result
func (s *ComparisonStore) Put(ctx context.Context, id string, result *comparison.Result) error {
	record, err := s.codec.Encode(result)
	if err != nil {
		return apperrors.NewStoreError("put", err)
	}

	summary := result.Summarize()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO comparisons (id, name1, name2, similarity, total_changes, created_at, created_unix, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, summary.Name1, summary.Name2, summary.SimilarityScore, summary.TotalChanges,
		summary.CreatedAt, result.CreatedTime().UnixMicro(), record,
	)
	if err != nil {
		return apperrors.NewStoreError("put", err)
	}
	return nil
}

// Get retrieves a result by id
func (s *ComparisonStore) Get(ctx context.Context, id string) (*comparison.Result, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx, "SELECT record FROM comparisons WHERE id = ?", id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("comparison").WithDetail("comparisonId", id)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get", err)
	}

	result, err := s.codec.Decode(record)
	if err != nil {
		return nil, apperrors.NewStoreError("get", err)
	}
	return result, nil
}

// List pages through summaries, newest first
func (s *ComparisonStore) List(ctx context.Context, opts ports.ListOptions) ([]comparison.Summary, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comparisons").Scan(&total); err != nil {
		return nil, 0, apperrors.NewStoreError("list", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name1, name2, similarity, total_changes, created_at
		 FROM comparisons ORDER BY created_unix DESC, id ASC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, apperrors.NewStoreError("list", err)
	}
	defer rows.Close()

	items := []comparison.Summary{}
	for rows.Next() {
		var summary comparison.Summary
		if err := rows.Scan(&summary.ComparisonID, &summary.Name1, &summary.Name2,
			&summary.SimilarityScore, &summary.TotalChanges, &summary.CreatedAt); err != nil {
			return nil, 0, apperrors.NewStoreError("list", err)
		}
		items = append(items, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewStoreError("list", err)
	}

	return items, total, nil
}

// Delete removes a result
func (s *ComparisonStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM comparisons WHERE id = ?", id)
	if err != nil {
		return apperrors.NewStoreError("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreError("delete", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("comparison").WithDetail("comparisonId", id)
	}
	return nil
}

// Backend implements ports.ComparisonStore
func (s *ComparisonStore) Backend() string {
	return "sqlite"
}

// Close closes the database
func (s *ComparisonStore) Close() error {
	return s.db.Close()
}
