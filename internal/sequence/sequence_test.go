package sequence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
}

func TestParse_Tokens(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		base    string
		token   string
		ext     string
		padding int
	}{
		{"hash run", "/shots/sh010/sh010.####.exr", "sh010.", "####", ".exr", 4},
		{"printf padded", "/shots/sh010/sh010.%05d.dpx", "sh010.", "%05d", ".dpx", 5},
		{"printf width", "/shots/sh010/sh010.%3d.jpg", "sh010.", "%3d", ".jpg", 3},
		{"star falls back to default", "/shots/sh010/sh010.*.exr", "sh010.", "*", ".exr", DefaultPadding},
		{"bare printf falls back to default", "/shots/sh010/sh010.%d.exr", "sh010.", "%d", ".exr", DefaultPadding},
		{"zero width falls back to default", "/shots/sh010/sh010.%00d.exr", "sh010.", "%00d", ".exr", DefaultPadding},
		{"zero padded zero width falls back to default", "/shots/sh010/sh010.%000d.exr", "sh010.", "%000d", ".exr", DefaultPadding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Parse(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash("/shots/sh010"), seq.Dir)
			assert.Equal(t, tt.base, seq.Base)
			assert.Equal(t, tt.token, seq.Token)
			assert.Equal(t, tt.ext, seq.Ext)
			assert.Equal(t, tt.padding, seq.Padding)
			assert.Nil(t, seq.Range)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, pattern := range []string{
		"/shots/sh010/sh010.0001.exr",
		"/shots/sh010/plate.mov",
		"",
	} {
		t.Run(pattern, func(t *testing.T) {
			seq, err := Parse(pattern, WithDefaultPadding(6))
			require.ErrorIs(t, err, ErrInvalidPattern)
			require.NotNil(t, seq, "partial result is always returned")
			assert.Equal(t, 6, seq.Padding)
		})
	}
}

func TestParse_FrameRange(t *testing.T) {
	seq, err := Parse("/shots/sh010/sh010.%04d.exr 1001-1100")
	require.NoError(t, err)
	require.NotNil(t, seq.Range)
	assert.Equal(t, Range{Start: 1001, End: 1100}, *seq.Range)
	assert.Equal(t, 1001, seq.StartFrame)
	assert.Equal(t, filepath.FromSlash("/shots/sh010/sh010.%04d.exr 1001-1100"), seq.String())

	single, err := Parse("/shots/sh010/sh010.####.exr 1050")
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 1050, End: 1050}, *single.Range)
	assert.Equal(t, "1050", single.Range.String())
}

func TestParse_SpaceInPathIsNotARange(t *testing.T) {
	seq, err := Parse("/shots/my shot/sh010.####.exr")
	require.NoError(t, err)
	assert.Nil(t, seq.Range)
	assert.Equal(t, filepath.FromSlash("/shots/my shot"), seq.Dir)
}

func TestParse_NormalizesSeparators(t *testing.T) {
	seq, err := Parse("/shots//sh010/./sh010.####.exr")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/shots/sh010"), seq.Dir)
}

func TestParse_InfersPaddingAndStartFromDisk(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "plate.00102.exr", "plate.00101.exr", "plate.00103.exr", "other.00001.exr")

	seq, err := Parse(filepath.Join(dir, "plate.*.exr"))
	require.NoError(t, err)
	assert.Equal(t, 5, seq.Padding)
	assert.Equal(t, 101, seq.StartFrame)
}

func TestParse_WithPaddingOverridesToken(t *testing.T) {
	seq, err := Parse("/out/proxy.####.jpg", WithPadding(6))
	require.NoError(t, err)
	assert.Equal(t, 6, seq.Padding)
	assert.Equal(t, filepath.FromSlash("/out/proxy.%06d.jpg"), seq.NumPattern())
}

func TestRenderings(t *testing.T) {
	seq, err := Parse("/shots/sh010/sh010.%04d.exr")
	require.NoError(t, err)

	assert.Equal(t, filepath.FromSlash("/shots/sh010/sh010.*.exr"), seq.StarPattern())
	assert.Equal(t, filepath.FromSlash("/shots/sh010/sh010.%04d.exr"), seq.NumPattern())
	assert.Equal(t, filepath.FromSlash("/shots/sh010/sh010.####.exr"), seq.HashPattern())
	assert.Equal(t, filepath.FromSlash("/shots/sh010/sh010.0042.exr"), seq.Frame(42))
	assert.Equal(t, filepath.FromSlash("/shots/sh010/sh010."), seq.Prefix())
}

func TestSplitRange(t *testing.T) {
	path, r := SplitRange("/a/b.####.exr 1-10")
	assert.Equal(t, "/a/b.####.exr", path)
	assert.Equal(t, &Range{Start: 1, End: 10}, r)

	path, r = SplitRange("/a/my shot.mov")
	assert.Equal(t, "/a/my shot.mov", path)
	assert.Nil(t, r)
}

func TestIsPattern(t *testing.T) {
	assert.True(t, IsPattern("/a/shot.####.jpg"))
	assert.True(t, IsPattern("/a/shot.%04d.jpg 1-20"))
	assert.True(t, IsPattern("/a/shot.*.exr"))
	assert.False(t, IsPattern("/a/shot.1001.exr"))
	assert.False(t, IsPattern("/a/clip.mov"))
}
