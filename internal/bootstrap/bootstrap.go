// Package bootstrap wires mediaconv's backends from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/maauso/mediaconv/internal/config"
	"github.com/maauso/mediaconv/internal/convert"
	"github.com/maauso/mediaconv/internal/dispatch"
	"github.com/maauso/mediaconv/internal/farm"
	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/metadata"
	"github.com/maauso/mediaconv/internal/spool"
	"github.com/maauso/mediaconv/internal/storage"
)

// ErrFarmNotConfigured is returned when the farm is used without farm.url.
var ErrFarmNotConfigured = errors.New("farm.url is not configured")

// Options tunes NewDependencies.
type Options struct {
	// ConfigPath is forwarded to remote re-invocations.
	ConfigPath string
	// ToolOutput, when set, receives the stdout and stderr of local tools.
	ToolOutput io.Writer
}

// Dependencies holds the initialized backends for one CLI invocation.
type Dependencies struct {
	Converter *convert.Converter
	Metadata  metadata.Store
	Local     *dispatch.Local

	cfg    *config.Config
	logger *slog.Logger
	farm   farm.Client
	queue  *lazySpool

	mu      sync.Mutex
	closers []io.Closer
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Dependencies, error) {
	deps := &Dependencies{cfg: cfg, logger: logger}

	sink, err := deps.initMetadata(ctx)
	if err != nil {
		return nil, err
	}
	deps.Metadata = sink

	localOpts := []dispatch.LocalOption{dispatch.WithLocalLogger(logger)}
	if opts.ToolOutput != nil {
		localOpts = append(localOpts, dispatch.WithOutput(opts.ToolOutput))
	}
	deps.Local = dispatch.NewLocal(localOpts...)
	deps.queue = &lazySpool{path: cfg.Spool.Path, deps: deps}

	registry := dispatch.Registry{
		job.MethodLocal:    deps.Local,
		job.MethodSpool:    dispatch.NewSpool(deps.queue),
		job.MethodDeadline: dispatch.Unimplemented{Method: job.MethodDeadline},
	}
	if cfg.Farm.URL != "" {
		client, err := farm.NewClient(cfg.Farm.URL,
			farm.WithToken(cfg.Farm.Token),
			farm.WithPool(cfg.Farm.Pool),
			farm.WithTimeout(time.Duration(cfg.Farm.TimeoutSeconds)*time.Second),
			farm.WithMaxRetries(cfg.Farm.MaxRetries),
		)
		if err != nil {
			_ = deps.Close()
			return nil, fmt.Errorf("create farm client: %w", err)
		}
		deps.farm = client
		registry[job.MethodSmedge] = dispatch.NewFarm(client)
		logger.Debug("farm configured",
			slog.String("url", cfg.Farm.URL),
			slog.String("pool", cfg.Farm.Pool),
		)
	}

	deps.Converter = convert.New(cfg, registry,
		convert.WithSink(sink),
		convert.WithLogger(logger),
		convert.WithConfigPath(opts.ConfigPath),
	)
	return deps, nil
}

// Farm returns the farm client, or ErrFarmNotConfigured.
func (d *Dependencies) Farm() (farm.Client, error) {
	if d.farm == nil {
		return nil, ErrFarmNotConfigured
	}
	return d.farm, nil
}

// Spool opens the spool store on first use.
func (d *Dependencies) Spool(ctx context.Context) (*spool.Store, error) {
	return d.queue.open(ctx)
}

// Close releases every opened backend.
func (d *Dependencies) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

func (d *Dependencies) addCloser(c io.Closer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closers = append(d.closers, c)
}

// initMetadata creates the descriptor sink selected by metadata.backend.
func (d *Dependencies) initMetadata(ctx context.Context) (metadata.Store, error) {
	cfg := d.cfg.Metadata
	switch cfg.Backend {
	case "", "none":
		return metadata.Nop{}, nil
	case "memory":
		return metadata.NewMemorySink(), nil
	case "dir":
		store, err := storage.NewLocalStore(cfg.DirPath)
		if err != nil {
			return nil, fmt.Errorf("create metadata directory: %w", err)
		}
		d.logger.Debug("metadata directory configured", slog.String("path", cfg.DirPath))
		return metadata.NewObjectSink(store, ""), nil
	case "sqlite":
		sink, err := metadata.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open metadata database: %w", err)
		}
		d.addCloser(sink)
		d.logger.Debug("metadata database configured", slog.String("path", cfg.SQLitePath))
		return sink, nil
	case "s3":
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 metadata store: %w", err)
		}
		d.logger.Debug("S3 metadata configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("prefix", cfg.S3Prefix),
		)
		return metadata.NewObjectSink(store, cfg.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", cfg.Backend)
	}
}

// lazySpool opens the spool database on the first enqueue so commands that
// never use the spool don't create it.
type lazySpool struct {
	path string
	deps *Dependencies

	once  sync.Once
	store *spool.Store
	err   error
}

func (l *lazySpool) open(ctx context.Context) (*spool.Store, error) {
	l.once.Do(func() {
		l.store, l.err = spool.Open(ctx, l.path)
		if l.err != nil {
			l.err = fmt.Errorf("open spool: %w", l.err)
			return
		}
		l.deps.addCloser(l.store)
	})
	return l.store, l.err
}

func (l *lazySpool) Enqueue(ctx context.Context, d *job.Descriptor) error {
	store, err := l.open(ctx)
	if err != nil {
		return err
	}
	return store.Enqueue(ctx, d)
}
