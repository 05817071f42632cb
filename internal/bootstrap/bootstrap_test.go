package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediaconv/internal/config"
	"github.com/maauso/mediaconv/internal/convert"
	"github.com/maauso/mediaconv/internal/dispatch"
	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/metadata"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Self = "mediaconv"
	cfg.Metadata.DirPath = filepath.Join(dir, "jobs")
	cfg.Metadata.SQLitePath = filepath.Join(dir, "jobs.db")
	cfg.Spool.Path = filepath.Join(dir, "spool.db")
	cfg.Spool.LockPath = filepath.Join(dir, "spool.lock")
	return &cfg
}

func newDeps(t *testing.T, cfg *config.Config) *Dependencies {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, err := NewDependencies(context.Background(), cfg, logger, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })
	return deps
}

func TestNewDependencies_MetadataBackends(t *testing.T) {
	tests := []struct {
		backend string
		check   func(t *testing.T, s metadata.Store)
	}{
		{"none", func(t *testing.T, s metadata.Store) { assert.IsType(t, metadata.Nop{}, s) }},
		{"memory", func(t *testing.T, s metadata.Store) { assert.IsType(t, &metadata.MemorySink{}, s) }},
		{"dir", func(t *testing.T, s metadata.Store) { assert.IsType(t, &metadata.ObjectSink{}, s) }},
		{"sqlite", func(t *testing.T, s metadata.Store) { assert.IsType(t, &metadata.SQLiteSink{}, s) }},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Metadata.Backend = tt.backend
			deps := newDeps(t, cfg)
			tt.check(t, deps.Metadata)
		})
	}
}

func TestNewDependencies_SpoolOpensOnFirstEnqueue(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metadata.Backend = "sqlite"
	deps := newDeps(t, cfg)
	assert.NoFileExists(t, cfg.Spool.Path)

	d, err := deps.Converter.WebM(context.Background(), convert.WebMOptions{
		Common: convert.Common{Method: job.MethodSpool},
		Input:  "/shots/plate.mov",
	})
	require.NoError(t, err)
	assert.FileExists(t, cfg.Spool.Path)

	store, err := deps.Spool(context.Background())
	require.NoError(t, err)
	queued, err := store.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusInQueue, queued.Status)

	recorded, err := deps.Metadata.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "/shots/plate.webm", recorded.FileOut)
}

func TestNewDependencies_FarmOptional(t *testing.T) {
	cfg := testConfig(t)
	deps := newDeps(t, cfg)

	_, err := deps.Farm()
	assert.ErrorIs(t, err, ErrFarmNotConfigured)

	_, err = deps.Converter.WebM(context.Background(), convert.WebMOptions{
		Common: convert.Common{Method: job.MethodSmedge},
		Input:  "/shots/plate.mov",
	})
	assert.ErrorIs(t, err, dispatch.ErrMethodNotConfigured)

	cfg = testConfig(t)
	cfg.Farm.URL = "http://farm.example:8080"
	deps = newDeps(t, cfg)
	client, err := deps.Farm()
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewDependencies_DeadlineIsUnimplemented(t *testing.T) {
	deps := newDeps(t, testConfig(t))
	_, err := deps.Converter.WebM(context.Background(), convert.WebMOptions{
		Common: convert.Common{Method: job.MethodDeadline},
		Input:  "/shots/plate.mov",
	})
	assert.ErrorIs(t, err, dispatch.ErrMethodNotImplemented)
}
