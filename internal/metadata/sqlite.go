package metadata

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/sqlitedb"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes.
const schemaVersion = 1

// Compile-time check that SQLiteSink implements Store.
var _ Store = (*SQLiteSink)(nil)

// SQLiteSink stores descriptors in a SQLite database. The indexed columns
// support listing; the full descriptor is kept as JSON.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sqlitedb.Open(ctx, path, sqlitedb.Schema{SQL: schemaSQL, Version: schemaVersion})
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Write upserts the descriptor.
func (s *SQLiteSink) Write(ctx context.Context, d *job.Descriptor) error {
	record, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("%w: encode descriptor %s: %v", ErrWrite, d.ID, err)
	}
	err = sqlitedb.RetryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO jobs (id, method, status, file_out, created_at, record)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				method = excluded.method,
				status = excluded.status,
				file_out = excluded.file_out,
				record = excluded.record`,
			d.ID, string(d.Method), string(d.Status), d.FileOut,
			sqlitedb.FormatTime(d.CreatedAt), string(record),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// FindByID loads a single descriptor.
func (s *SQLiteSink) FindByID(ctx context.Context, id string) (*job.Descriptor, error) {
	var record string
	err := s.db.QueryRowContext(ctx, "SELECT record FROM jobs WHERE id = ?", id).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("metadata: query %s: %w", id, err)
	}
	return decodeRecord(record)
}

// List returns descriptors newest first.
func (s *SQLiteSink) List(ctx context.Context, limit int) ([]*job.Descriptor, error) {
	query := "SELECT record FROM jobs ORDER BY created_at DESC, id ASC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metadata: list: %w", err)
	}
	defer rows.Close()

	var result []*job.Descriptor
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("metadata: scan: %w", err)
		}
		d, err := decodeRecord(record)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func decodeRecord(record string) (*job.Descriptor, error) {
	var d job.Descriptor
	if err := json.Unmarshal([]byte(record), &d); err != nil {
		return nil, fmt.Errorf("metadata: decode record: %w", err)
	}
	return &d, nil
}
