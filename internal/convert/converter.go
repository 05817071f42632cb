// Package convert orchestrates conversions: it validates inputs, resolves
// sequences, prepares outputs, builds the tool invocation, hands it to the
// selected dispatcher, and records the resulting descriptor.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maauso/mediaconv/internal/audio"
	"github.com/maauso/mediaconv/internal/config"
	"github.com/maauso/mediaconv/internal/dispatch"
	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
	"github.com/maauso/mediaconv/internal/metadata"
	"github.com/maauso/mediaconv/internal/sequence"
	"github.com/maauso/mediaconv/internal/storage"
)

var (
	// ErrOutputRequired is returned when a conversion needs an explicit output path.
	ErrOutputRequired = errors.New("output path is required")
	// ErrUnsupportedFileType is returned when the input category doesn't fit the conversion.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrUnmappedExtension is returned when the input extension is not in the extension map.
	ErrUnmappedExtension = errors.New("extension is not mapped to a file type")
	// ErrNotWav is returned when a wav extraction targets a non-.wav file.
	ErrNotWav = audio.ErrNotWav
	// ErrInvalidQuality is returned for a prores quality outside 0-3.
	ErrInvalidQuality = media.ErrInvalidQuality
	// ErrConversionNotDefined is returned by Run for an unknown file type and conversion pair.
	ErrConversionNotDefined = errors.New("conversion not defined")
)

// Common holds the dispatch options shared by every conversion.
type Common struct {
	// Method selects the backend; empty uses the configured default.
	Method job.Method
	// DependsOn is a job id the conversion waits for on queue backends.
	DependsOn string
	// CommandName overrides the generated descriptor name.
	CommandName string
}

// Converter runs conversions against a configuration.
type Converter struct {
	cfg         *config.Config
	builder     *media.Builder
	audio       *audio.Extractor
	extMap      media.ExtMap
	dispatchers dispatch.Registry
	sink        metadata.Sink
	logger      *slog.Logger
	self        string
	configPath  string
}

// Option configures a Converter.
type Option func(*Converter)

// WithSink sets the metadata sink. The default discards descriptors.
func WithSink(s metadata.Sink) Option {
	return func(c *Converter) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSelf sets the mediaconv executable used in remote re-invocations.
func WithSelf(path string) Option {
	return func(c *Converter) {
		if path != "" {
			c.self = path
		}
	}
}

// WithConfigPath passes --config to remote re-invocations.
func WithConfigPath(path string) Option {
	return func(c *Converter) {
		c.configPath = path
	}
}

// New creates a Converter.
func New(cfg *config.Config, dispatchers dispatch.Registry, opts ...Option) *Converter {
	c := &Converter{
		cfg:         cfg,
		builder:     media.NewBuilder(cfg.Paths.FFmpeg, cfg.Paths.Magick),
		audio:       audio.NewExtractor(cfg.Paths.FFmpeg),
		extMap:      media.NewExtMap(cfg.ExtMap),
		dispatchers: dispatchers,
		sink:        metadata.Nop{},
		logger:      slog.Default(),
		self:        defaultSelf(cfg.Paths.Self),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultSelf(configured string) string {
	if configured != "" {
		return configured
	}
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	return "mediaconv"
}

func (c *Converter) method(m job.Method) job.Method {
	if m == "" {
		return job.Method(c.cfg.Defaults.Method)
	}
	return m
}

// dispatcher resolves the backend before any work is done so an
// unsupported method fails without touching the filesystem.
func (c *Converter) dispatcher(m job.Method) (dispatch.Dispatcher, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %q", job.ErrUnknownMethod, m)
	}
	return c.dispatchers.For(m)
}

func commandName(common Common, kind, input string) string {
	if common.CommandName != "" {
		return common.CommandName
	}
	return kind + " " + filepath.Base(input)
}

// category looks up the file type of path, ignoring a trailing frame range.
func (c *Converter) category(path string) (media.Category, error) {
	p, _ := sequence.SplitRange(path)
	cat, ext, ok := c.extMap.Lookup(p)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnmappedExtension, ext)
	}
	return cat, nil
}

func (c *Converter) requireCategory(kind, path string, allowed ...media.Category) (media.Category, error) {
	cat, err := c.category(path)
	if err != nil {
		c.logger.Error("cannot determine input file type",
			slog.String("conversion", kind),
			slog.String("input", path),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	for _, a := range allowed {
		if cat == a {
			return cat, nil
		}
	}
	err = fmt.Errorf("%w: %s needs %v input, got %s", ErrUnsupportedFileType, kind, allowed, cat)
	c.logger.Error("unsupported input file type",
		slog.String("conversion", kind),
		slog.String("input", path),
		slog.String("file_type", string(cat)),
	)
	return "", err
}

func (c *Converter) requireOutput(kind, output string) error {
	if output != "" {
		return nil
	}
	c.logger.Error("output path is required", slog.String("conversion", kind))
	return fmt.Errorf("%s: %w", kind, ErrOutputRequired)
}

// prepare creates the output directory and, per configuration, removes a
// stale output file.
func (c *Converter) prepare(output string) error {
	_, err := storage.PrepareOutput(output, c.cfg.Defaults.DeleteExisting)
	return err
}

// remote builds a mediaconv re-invocation that runs the same conversion
// locally on the worker.
func (c *Converter) remote(sub string, args ...string) media.Invocation {
	argv := make([]string, 0, len(args)+6)
	if c.configPath != "" {
		argv = append(argv, "--config", c.configPath)
	}
	argv = append(argv, sub)
	argv = append(argv, args...)
	argv = append(argv, "--method", string(job.MethodLocal))
	return media.Invocation{Binary: c.self, Args: argv}
}

// submit dispatches task, attaches output, and records the descriptor.
func (c *Converter) submit(ctx context.Context, d dispatch.Dispatcher, task dispatch.Task, output string) (*job.Descriptor, error) {
	c.logger.Info("dispatching conversion",
		slog.String("name", task.Name),
		slog.Int("steps", len(task.Steps)),
		slog.String("output", output),
	)

	desc, err := d.Submit(ctx, task)
	if err != nil {
		c.logger.Error("dispatch failed",
			slog.String("name", task.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", task.Name, err)
	}
	if desc == nil {
		return nil, nil
	}
	return c.finish(ctx, desc, output)
}

func (c *Converter) finish(ctx context.Context, d *job.Descriptor, output string) (*job.Descriptor, error) {
	if err := d.AttachOutput(output); err != nil {
		return nil, err
	}
	if err := c.sink.Write(ctx, d); err != nil {
		if !errors.Is(err, metadata.ErrWrite) {
			return nil, err
		}
		c.logger.Warn("failed to record job metadata",
			slog.String("id", d.ID),
			slog.String("error", err.Error()),
		)
	}
	c.logger.Info("conversion dispatched",
		slog.String("id", d.ID),
		slog.String("method", string(d.Method)),
		slog.String("status", string(d.Status)),
		slog.String("file_out", d.FileOut),
	)
	return d, nil
}

func resolutionArgs(res media.Resolution) []string {
	if res.HeightOnly {
		return []string{"-h", fmt.Sprint(res.Height), "--height-only"}
	}
	return []string{"-w", fmt.Sprint(res.Width), "-h", fmt.Sprint(res.Height)}
}
