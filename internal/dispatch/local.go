package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
)

// stderrTailLines bounds how much tool output is kept in a descriptor.
const stderrTailLines = 20

// ExecError is returned when a command could not be run to completion,
// because the binary failed to start or the context was cancelled.
type ExecError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("exec %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	return msg
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Local runs tasks as blocking subprocesses.
type Local struct {
	logger *slog.Logger
	output io.Writer
}

// Compile-time check that Local implements Dispatcher.
var _ Dispatcher = (*Local)(nil)

// LocalOption configures Local.
type LocalOption func(*Local)

// WithLocalLogger sets the logger.
func WithLocalLogger(l *slog.Logger) LocalOption {
	return func(lo *Local) {
		lo.logger = l
	}
}

// WithOutput mirrors the tools' stdout and stderr to w.
func WithOutput(w io.Writer) LocalOption {
	return func(lo *Local) {
		lo.output = w
	}
}

// NewLocal creates a local backend.
func NewLocal(opts ...LocalOption) *Local {
	l := &Local{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Submit runs each step in order. A non-zero exit fails the descriptor and
// stops the task without returning an error; only a step that cannot be
// run returns one, together with the failed descriptor.
func (l *Local) Submit(ctx context.Context, task Task) (*job.Descriptor, error) {
	if len(task.Steps) == 0 {
		return nil, ErrEmptyTask
	}

	d := job.New(job.MethodLocal, task.Name, task.Steps[0].Argv())
	d.DependsOn = task.DependsOn
	if len(task.Steps) > 1 {
		d.Frames = len(task.Steps)
	}
	_ = d.Start()

	for i, step := range task.Steps {
		d.Command = step.Argv()
		if step.IsZero() {
			_ = d.Fail(ErrEmptyTask.Error())
			return d, ErrEmptyTask
		}
		l.logger.Debug("running command",
			slog.String("name", task.Name),
			slog.Int("step", i+1),
			slog.String("command", step.String()),
		)

		pid, exitCode, stderr, err := l.run(ctx, step)
		d.PID = pid
		if err != nil {
			_ = d.Fail(err.Error())
			return d, err
		}
		if exitCode != 0 {
			d.ExitCode = exitCode
			reason := tail(stderr, stderrTailLines)
			if len(task.Steps) > 1 {
				reason = fmt.Sprintf("step %d of %d: %s", i+1, len(task.Steps), reason)
			}
			_ = d.Fail(reason)
			l.logger.Error("command failed",
				slog.String("name", task.Name),
				slog.Int("exit_code", exitCode),
				slog.String("command", step.String()),
			)
			return d, nil
		}
	}

	_ = d.Complete()
	return d, nil
}

// Run executes a single argv. It lets the spool worker run queued
// re-invocations through the same path as direct conversions.
func (l *Local) Run(ctx context.Context, name string, argv []string) (*job.Descriptor, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyTask
	}
	return l.Submit(ctx, Single(name, media.Invocation{Binary: argv[0], Args: argv[1:]}))
}

func (l *Local) run(ctx context.Context, inv media.Invocation) (pid, exitCode int, stderr string, err error) {
	// #nosec G204 - argv is built from typed parameters, never through a shell
	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args...)

	var buf bytes.Buffer
	cmd.Stderr = &buf
	if l.output != nil {
		cmd.Stdout = l.output
		cmd.Stderr = io.MultiWriter(&buf, l.output)
	}

	if err := cmd.Start(); err != nil {
		return 0, 0, "", &ExecError{Args: inv.Argv(), Err: err}
	}
	pid = cmd.Process.Pid

	err = cmd.Wait()
	if ctx.Err() != nil {
		return pid, -1, buf.String(), &ExecError{Args: inv.Argv(), Stderr: tail(buf.String(), stderrTailLines), Err: ctx.Err()}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return pid, exitErr.ExitCode(), buf.String(), nil
	}
	if err != nil {
		return pid, -1, buf.String(), &ExecError{Args: inv.Argv(), Stderr: tail(buf.String(), stderrTailLines), Err: err}
	}
	return pid, 0, buf.String(), nil
}

// tail returns the last n non-empty lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}
