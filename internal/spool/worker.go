package spool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/maauso/mediaconv/internal/job"
)

// ErrWorkerBusy is returned when another worker holds the spool lock.
var ErrWorkerBusy = errors.New("spool: another worker is already running")

// DefaultPollInterval is how often a following worker checks for new jobs.
const DefaultPollInterval = 5 * time.Second

// Runner executes one command line and reports its outcome. A non-zero
// exit is reported through the returned descriptor; an error means the
// command could not be started.
type Runner interface {
	Run(ctx context.Context, name string, argv []string) (*job.Descriptor, error)
}

// Stats summarizes a drain.
type Stats struct {
	Completed   int
	Failed      int
	Interrupted int
}

// Worker drains the spool one job at a time.
type Worker struct {
	store        *Store
	runner       Runner
	lock         *flock.Flock
	lockPath     string
	logger       *slog.Logger
	pollInterval time.Duration
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithLogger sets the worker logger.
func WithLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = l
	}
}

// WithPollInterval sets the follow-mode polling interval.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// NewWorker creates a worker guarded by an exclusive lock on lockPath.
func NewWorker(store *Store, runner Runner, lockPath string, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:        store,
		runner:       runner,
		lock:         flock.New(lockPath),
		lockPath:     lockPath,
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Drain runs runnable jobs until none are left. With follow set it keeps
// polling until ctx is cancelled, which is not reported as an error.
func (w *Worker) Drain(ctx context.Context, follow bool) (Stats, error) {
	var stats Stats

	if err := os.MkdirAll(filepath.Dir(w.lockPath), 0o755); err != nil {
		return stats, fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return stats, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return stats, ErrWorkerBusy
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release spool lock", slog.String("error", err.Error()))
		}
	}()

	n, err := w.store.FailInterrupted(ctx)
	if err != nil {
		return stats, err
	}
	stats.Interrupted = n
	if n > 0 {
		w.logger.Warn("failed jobs left running by a previous worker", slog.Int("count", n))
	}

	w.logger.Info("spool worker started", slog.String("lock", w.lockPath), slog.Bool("follow", follow))
	for {
		d, err := w.store.ClaimNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return stats, nil
			}
			return stats, err
		}
		if d == nil {
			if !follow {
				w.logger.Info("spool drained",
					slog.Int("completed", stats.Completed),
					slog.Int("failed", stats.Failed),
				)
				return stats, nil
			}
			select {
			case <-ctx.Done():
				return stats, nil
			case <-time.After(w.pollInterval):
				continue
			}
		}

		w.runOne(ctx, d)
		if d.Status == job.StatusCompleted {
			stats.Completed++
		} else {
			stats.Failed++
		}

		// Record the outcome even when ctx was cancelled mid-run.
		if err := w.store.Finish(context.WithoutCancel(ctx), d); err != nil {
			return stats, err
		}
		if ctx.Err() != nil {
			return stats, nil
		}
	}
}

func (w *Worker) runOne(ctx context.Context, d *job.Descriptor) {
	logger := w.logger.With(slog.String("job_id", d.ID), slog.String("name", d.Name))
	logger.Info("running spool job")

	result, err := w.runner.Run(ctx, d.Name, d.Command)
	switch {
	case err != nil:
		_ = d.Fail(err.Error())
		logger.Error("spool job did not start", slog.String("error", err.Error()))
	case result.Status == job.StatusCompleted:
		_ = d.Complete()
		logger.Info("spool job completed")
	default:
		reason := result.Error
		if reason == "" {
			reason = fmt.Sprintf("exit status %d", result.ExitCode)
		}
		d.ExitCode = result.ExitCode
		_ = d.Fail(reason)
		logger.Error("spool job failed", slog.Int("exit_code", result.ExitCode))
	}
}
