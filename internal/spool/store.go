// Package spool is a local job queue backed by SQLite. Converters enqueue
// mediaconv re-invocations; a single worker process drains them in order,
// holding each job until the job it depends on has completed.
package spool

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/sqlitedb"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

var (
	// ErrJobNotFound is returned when a spool job cannot be found by ID.
	ErrJobNotFound = errors.New("spool: job not found")
	// ErrEmptyCommand is returned when enqueuing a job without a command.
	ErrEmptyCommand = errors.New("spool: command is required")
)

// Store persists spool jobs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the spool database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlitedb.Open(ctx, path, sqlitedb.Schema{SQL: schemaSQL, Version: schemaVersion})
	if err != nil {
		return nil, fmt.Errorf("spool: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Enqueue adds d to the queue. The spool uses the descriptor ID as the job
// ID, so d.JobID is set to d.ID.
func (s *Store) Enqueue(ctx context.Context, d *job.Descriptor) error {
	if len(d.Command) == 0 {
		return ErrEmptyCommand
	}
	command, err := json.Marshal(d.Command)
	if err != nil {
		return fmt.Errorf("spool: encode command: %w", err)
	}
	d.JobID = d.ID

	err = sqlitedb.RetryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO spool_jobs (id, name, command, depends_on, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, d.Name, string(command), d.DependsOn, string(job.StatusInQueue),
			sqlitedb.FormatTime(d.CreatedAt),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("spool: enqueue %s: %w", d.ID, err)
	}
	return nil
}

// ClaimNext marks the oldest runnable job RUNNING and returns it. A job is
// runnable when it has no dependency, its dependency has COMPLETED, or its
// dependency is not a spool job. Jobs whose dependency FAILED are failed
// first. Returns nil, nil when nothing is runnable.
func (s *Store) ClaimNext(ctx context.Context) (*job.Descriptor, error) {
	var claimed *job.Descriptor
	err := sqlitedb.RetryOnBusy(ctx, func() error {
		var txErr error
		claimed, txErr = s.claimNext(ctx)
		return txErr
	})
	if err != nil {
		return nil, fmt.Errorf("spool: claim: %w", err)
	}
	return claimed, nil
}

func (s *Store) claimNext(ctx context.Context) (*job.Descriptor, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := sqlitedb.FormatTime(time.Now())

	// Cascade failures down dependency chains.
	for {
		res, err := tx.ExecContext(ctx, `
			UPDATE spool_jobs
			SET status = ?, error = 'dependency ' || depends_on || ' failed', finished_at = ?
			WHERE status = ?
			  AND depends_on IN (SELECT id FROM spool_jobs WHERE status = ?)`,
			string(job.StatusFailed), now, string(job.StatusInQueue), string(job.StatusFailed),
		)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}

	row := tx.QueryRowContext(ctx, `
		SELECT `+columns+`
		FROM spool_jobs j
		WHERE j.status = ?
		  AND (
			j.depends_on = ''
			OR NOT EXISTS (SELECT 1 FROM spool_jobs d WHERE d.id = j.depends_on)
			OR EXISTS (SELECT 1 FROM spool_jobs d WHERE d.id = j.depends_on AND d.status = ?)
		  )
		ORDER BY j.seq
		LIMIT 1`,
		string(job.StatusInQueue), string(job.StatusCompleted),
	)
	d, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tx.Commit()
	}
	if err != nil {
		return nil, err
	}

	if err := d.Start(); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE spool_jobs SET status = ?, started_at = ? WHERE id = ?",
		string(d.Status), sqlitedb.FormatTime(d.StartedAt), d.ID,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return d, nil
}

// Finish records the terminal state of a claimed job.
func (s *Store) Finish(ctx context.Context, d *job.Descriptor) error {
	if !d.Status.IsTerminal() {
		return fmt.Errorf("spool: finish %s: %w: status %s is not terminal", d.ID, job.ErrInvalidTransition, d.Status)
	}
	var affected int64
	err := sqlitedb.RetryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, `
			UPDATE spool_jobs
			SET status = ?, exit_code = ?, error = ?, finished_at = ?
			WHERE id = ?`,
			string(d.Status), d.ExitCode, d.Error, sqlitedb.FormatTime(d.FinishedAt), d.ID,
		)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("spool: finish %s: %w", d.ID, err)
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// FailInterrupted fails every RUNNING job. Only the lock-holding worker
// runs jobs, so at worker start any RUNNING row was left by a worker that
// died mid-job.
func (s *Store) FailInterrupted(ctx context.Context) (int, error) {
	var affected int64
	err := sqlitedb.RetryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, `
			UPDATE spool_jobs SET status = ?, error = 'worker interrupted', finished_at = ?
			WHERE status = ?`,
			string(job.StatusFailed), sqlitedb.FormatTime(time.Now()), string(job.StatusRunning),
		)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("spool: fail interrupted jobs: %w", err)
	}
	return int(affected), nil
}

// Get returns a single job.
func (s *Store) Get(ctx context.Context, id string) (*job.Descriptor, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM spool_jobs j WHERE j.id = ?", id)
	d, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("spool: get %s: %w", id, err)
	}
	return d, nil
}

// List returns jobs in queue order, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...job.Status) ([]*job.Descriptor, error) {
	query := "SELECT " + columns + " FROM spool_jobs j"
	var args []any
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += " WHERE j.status IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY j.seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("spool: list: %w", err)
	}
	defer rows.Close()

	var result []*job.Descriptor
	for rows.Next() {
		d, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("spool: scan: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

const columns = "j.id, j.name, j.command, j.depends_on, j.status, j.exit_code, j.error, j.created_at, j.started_at, j.finished_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*job.Descriptor, error) {
	var (
		d                              job.Descriptor
		command, status                string
		createdAt, startedAt, finished string
	)
	if err := row.Scan(&d.ID, &d.Name, &command, &d.DependsOn, &status, &d.ExitCode, &d.Error,
		&createdAt, &startedAt, &finished); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(command), &d.Command); err != nil {
		return nil, fmt.Errorf("decode command of %s: %w", d.ID, err)
	}
	d.JobID = d.ID
	d.Method = job.MethodSpool
	d.Status = job.Status(status)
	d.CreatedAt = sqlitedb.ParseTime(createdAt)
	d.StartedAt = sqlitedb.ParseTime(startedAt)
	d.FinishedAt = sqlitedb.ParseTime(finished)
	return &d, nil
}
