package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediaconv/internal/dispatch"
	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
	"github.com/maauso/mediaconv/internal/sequence"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
}

var proxyRes = media.Resolution{Width: 1920, Height: 1080}

func TestProxySequence_CopyInputPadding(t *testing.T) {
	cfg := testConfig()
	cfg.Defaults.Padding = 8
	f := newFixture(t, cfg)
	in, out := t.TempDir(), t.TempDir()
	touch(t, in, "sh010.01001.exr", "sh010.01002.exr")

	d, err := f.conv.ProxySequence(context.Background(), ProxySequenceOptions{
		Input:            filepath.Join(in, "sh010.*.exr"),
		Output:           filepath.Join(out, "proxy.%d.jpg"),
		Resolution:       proxyRes,
		CopyInputPadding: true,
	})
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 2, d.Frames)
	assert.Equal(t, filepath.Join(out, "proxy.%05d.jpg"), d.FileOut)

	task := f.local.last(t)
	require.Len(t, task.Steps, 2)
	assert.Equal(t, []string{
		"magick", filepath.Join(in, "sh010.01001.exr"), "-resize", "1920x1080", filepath.Join(out, "proxy.01001.jpg"),
	}, task.Steps[0].Argv())
	assert.Equal(t, filepath.Join(out, "proxy.01002.jpg"), task.Steps[1].Args[3])
}

func TestProxySequence_DefaultPadding(t *testing.T) {
	cfg := testConfig()
	cfg.Defaults.Padding = 6
	f := newFixture(t, cfg)
	in, out := t.TempDir(), t.TempDir()
	touch(t, in, "sh010.01001.exr")

	_, err := f.conv.ProxySequence(context.Background(), ProxySequenceOptions{
		Input:      filepath.Join(in, "sh010.*.exr"),
		Output:     filepath.Join(out, "proxy.####.jpg"),
		Resolution: media.Resolution{Height: 540, HeightOnly: true},
	})
	require.NoError(t, err)

	step := f.local.last(t).Steps[0]
	assert.Equal(t, "x540", step.Args[2])
	assert.Equal(t, filepath.Join(out, "proxy.001001.jpg"), step.Args[3])
}

func TestProxySequence_NoMatchIsNoop(t *testing.T) {
	f := newFixture(t, testConfig())
	in := t.TempDir()
	touch(t, in, "other.1001.exr")

	d, err := f.conv.ProxySequence(context.Background(), ProxySequenceOptions{
		Input:      filepath.Join(in, "sh010.####.exr"),
		Output:     filepath.Join(t.TempDir(), "proxy.####.jpg"),
		Resolution: proxyRes,
	})
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.Empty(t, f.local.tasks)

	all, err := f.sink.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProxySequence_InvalidPatternFailsFast(t *testing.T) {
	f := newFixture(t, testConfig())
	in := t.TempDir()
	touch(t, in, "sh010.1001.exr")

	_, err := f.conv.ProxySequence(context.Background(), ProxySequenceOptions{
		Input:      filepath.Join(in, "sh010.1001.exr"),
		Output:     filepath.Join(t.TempDir(), "proxy.####.jpg"),
		Resolution: proxyRes,
	})
	assert.ErrorIs(t, err, sequence.ErrInvalidPattern)
	assert.Empty(t, f.local.tasks)

	_, err = f.conv.ProxySequence(context.Background(), ProxySequenceOptions{
		Input:      filepath.Join(in, "sh010.####.exr"),
		Output:     filepath.Join(t.TempDir(), "proxy.jpg"),
		Resolution: proxyRes,
	})
	assert.ErrorIs(t, err, sequence.ErrInvalidPattern)
}

func TestProxySequence_BestEffortContinues(t *testing.T) {
	cfg := testConfig()
	cfg.Defaults.BestEffortSequences = true
	f := newFixture(t, cfg)
	in, out := t.TempDir(), t.TempDir()
	touch(t, in, "sh010.1001.exr")

	d, err := f.conv.ProxySequence(context.Background(), ProxySequenceOptions{
		Input:      filepath.Join(in, "sh010.1001.exr"),
		Output:     filepath.Join(out, "proxy.####.jpg"),
		Resolution: proxyRes,
	})
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, filepath.Join(out, "proxy.1001.jpg"), f.local.last(t).Steps[0].Args[3])
}

func TestProxySequence_OutputRequired(t *testing.T) {
	f := newFixture(t, testConfig())
	_, err := f.conv.ProxySequence(context.Background(), ProxySequenceOptions{
		Input:      "/shots/sh010.####.exr",
		Resolution: proxyRes,
	})
	assert.ErrorIs(t, err, ErrOutputRequired)
}

func TestProxySequence_Remote(t *testing.T) {
	f := newFixture(t, testConfig())

	d, err := f.conv.ProxySequence(context.Background(), ProxySequenceOptions{
		Common:     Common{Method: job.MethodSpool, DependsOn: "job-1"},
		Input:      "/shots/sh010.####.exr 1001-1010",
		Output:     "/proxy/sh010.####.jpg",
		Resolution: proxyRes,
	})
	require.NoError(t, err)
	assert.Equal(t, job.MethodSpool, d.Method)

	assert.Equal(t, []string{
		"mediaconv", "convert",
		"-i", "/shots/sh010.####.exr 1001-1010", "-o", "/proxy/sh010.####.jpg",
		"-f", "sequence", "-t", "proxy",
		"-w", "1920", "-h", "1080",
		"--copy-input-padding=false",
		"--method", "local",
	}, f.spool.last(t).Steps[0].Argv())
}

func TestProxySequence_LocalEndToEnd(t *testing.T) {
	dir := t.TempDir()
	magick := filepath.Join(dir, "magick")
	// Stand-in for ImageMagick: copy input to output.
	require.NoError(t, os.WriteFile(magick, []byte("#!/bin/sh\ncp \"$1\" \"$4\"\n"), 0o755))

	cfg := testConfig()
	cfg.Paths.Magick = magick
	conv := New(cfg, dispatch.Registry{job.MethodLocal: dispatch.NewLocal()}, WithLogger(discardLogger()))

	in, out := filepath.Join(dir, "in"), filepath.Join(dir, "out", "proxy")
	require.NoError(t, os.MkdirAll(in, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "sh010.0101.exr"), []byte("frame"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "sh010.0102.exr"), []byte("frame"), 0o644))

	d, err := conv.ProxySequence(context.Background(), ProxySequenceOptions{
		Input:            filepath.Join(in, "sh010.####.exr"),
		Output:           filepath.Join(out, "sh010_proxy.####.exr"),
		Resolution:       proxyRes,
		CopyInputPadding: true,
	})
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, job.StatusCompleted, d.Status)
	assert.FileExists(t, filepath.Join(out, "sh010_proxy.0101.exr"))
	assert.FileExists(t, filepath.Join(out, "sh010_proxy.0102.exr"))
}

func TestWebPreview_Sequence(t *testing.T) {
	f := newFixture(t, testConfig())
	in := t.TempDir()
	touch(t, in, "sh010.1001.jpg", "sh010.1002.jpg")
	out := filepath.Join(t.TempDir(), "sh010.mp4")

	_, err := f.conv.WebPreview(context.Background(), WebPreviewOptions{
		Input:  filepath.Join(in, "sh010.####.jpg"),
		Output: out,
	})
	require.NoError(t, err)

	argv := f.local.last(t).Steps[0].Argv()
	assert.Equal(t, []string{
		"ffmpeg", "-y",
		"-start_number", "1001",
		"-framerate", "24",
		"-i", filepath.Join(in, "sh010.%04d.jpg"),
	}, argv[:8])
	assert.Contains(t, argv, media.FitPadFilter(media.Resolution{Width: 1920, Height: 1080}))
	assert.Equal(t, out, argv[len(argv)-1])
}

func TestWebPreview_Movie(t *testing.T) {
	f := newFixture(t, testConfig())
	out := filepath.Join(t.TempDir(), "review.mp4")

	_, err := f.conv.WebPreview(context.Background(), WebPreviewOptions{
		Input:      "/shots/plate.mov",
		Output:     out,
		Resolution: &media.Resolution{Width: 1280, Height: 720},
	})
	require.NoError(t, err)

	argv := f.local.last(t).Steps[0].Argv()
	assert.Equal(t, []string{"ffmpeg", "-y", "-i", "/shots/plate.mov"}, argv[:4])
	assert.NotContains(t, argv, "-start_number")
	assert.Contains(t, argv, media.FitPadFilter(media.Resolution{Width: 1280, Height: 720}))
}

func TestWebPreview_Rejects(t *testing.T) {
	f := newFixture(t, testConfig())

	_, err := f.conv.WebPreview(context.Background(), WebPreviewOptions{Input: "/shots/plate.mov"})
	assert.ErrorIs(t, err, ErrOutputRequired)

	_, err = f.conv.WebPreview(context.Background(), WebPreviewOptions{Input: "/shots/still.png", Output: "/tmp/x.mp4"})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestGIF_Movie(t *testing.T) {
	f := newFixture(t, testConfig())
	in := filepath.Join(t.TempDir(), "clip.mov")

	d, err := f.conv.GIF(context.Background(), GIFOptions{Input: in})
	require.NoError(t, err)
	assert.Equal(t, media.ChangeExtension(in, "gif"), d.FileOut)

	argv := f.local.last(t).Steps[0].Argv()
	assert.Contains(t, argv, "fps=12,scale=320:-2:flags=lanczos,split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse")
}

func TestGIF_Sequence(t *testing.T) {
	f := newFixture(t, testConfig())
	in := t.TempDir()
	touch(t, in, "sh010.0005.exr")

	d, err := f.conv.GIF(context.Background(), GIFOptions{Input: filepath.Join(in, "sh010.####.exr"), Width: 480})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(in, "sh010.gif"), d.FileOut)

	argv := f.local.last(t).Steps[0].Argv()
	assert.Equal(t, []string{"ffmpeg", "-y", "-start_number", "5", "-framerate", "24", "-i", filepath.Join(in, "sh010.%04d.exr")}, argv[:8])
}

func TestGIF_RejectsImage(t *testing.T) {
	f := newFixture(t, testConfig())
	_, err := f.conv.GIF(context.Background(), GIFOptions{Input: "/shots/still.png"})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}
