package convert

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
)

func TestProresMov_DefaultOutput(t *testing.T) {
	f := newFixture(t, testConfig())
	in := filepath.Join(t.TempDir(), "plate.mov")

	d, err := f.conv.ProresMov(context.Background(), ProresOptions{Input: in, Quality: media.ProresStandard})
	require.NoError(t, err)
	assert.Equal(t, media.Stem(in)+"_prores_standard.mov", d.FileOut)

	argv := f.local.last(t).Steps[0].Argv()
	assert.Contains(t, argv, "prores_ks")
	assert.Equal(t, "2", argv[indexOf(argv, "-profile:v")+1])
}

func TestProresMov_Rejects(t *testing.T) {
	f := newFixture(t, testConfig())

	_, err := f.conv.ProresMov(context.Background(), ProresOptions{Input: "/shots/plate.mov", Quality: 7})
	assert.ErrorIs(t, err, ErrInvalidQuality)

	_, err = f.conv.ProresMov(context.Background(), ProresOptions{Input: "/shots/still.png"})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = f.conv.ProresMov(context.Background(), ProresOptions{Input: "/shots/notes.txt"})
	assert.ErrorIs(t, err, ErrUnmappedExtension)

	assert.Empty(t, f.local.tasks)
}

func TestProresMov_RemoteCarriesQuality(t *testing.T) {
	f := newFixture(t, testConfig())

	_, err := f.conv.ProresMov(context.Background(), ProresOptions{
		Common:  Common{Method: job.MethodSmedge},
		Input:   "/shots/plate.mov",
		Quality: media.ProresHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"mediaconv", "convert",
		"-i", "/shots/plate.mov", "-o", "/shots/plate_prores_high.mov",
		"-f", "movie", "-t", "prores", "-q", "3",
		"--method", "local",
	}, f.smedge.last(t).Steps[0].Argv())
}

func TestMP4_AudioOnlyName(t *testing.T) {
	f := newFixture(t, testConfig())
	dir := t.TempDir()

	d, err := f.conv.MP4(context.Background(), MP4Options{Input: filepath.Join(dir, "clip.mov"), AudioOnly: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip_audio.mp4"), d.FileOut)
	assert.Equal(t, "audio clip.mov", d.Name)

	argv := f.local.last(t).Steps[0].Argv()
	assert.Contains(t, argv, "-vn")

	d, err = f.conv.MP4(context.Background(), MP4Options{
		Input:     filepath.Join(dir, "clip.mov"),
		Output:    filepath.Join(dir, "delivery.mp4"),
		AudioOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "delivery_audio.mp4"), d.FileOut)
}

func TestMP4_Pad(t *testing.T) {
	f := newFixture(t, testConfig())
	in := filepath.Join(t.TempDir(), "clip.mov")

	_, err := f.conv.MP4(context.Background(), MP4Options{Input: in, Pad: &media.Resolution{Width: 1280, Height: 720}})
	require.NoError(t, err)

	argv := f.local.last(t).Steps[0].Argv()
	assert.Equal(t, "scale=trunc((a*oh)/2)*2:720,pad=1280:720:(ow-iw)/2:(oh-ih)/2", argv[indexOf(argv, "-vf")+1])
}

func TestMovieThumb(t *testing.T) {
	f := newFixture(t, testConfig())

	_, err := f.conv.MovieThumb(context.Background(), ThumbOptions{Input: "/shots/plate.mov"})
	assert.ErrorIs(t, err, ErrOutputRequired)

	out := filepath.Join(t.TempDir(), "thumb.jpg")
	_, err = f.conv.MovieThumb(context.Background(), ThumbOptions{Input: "/shots/plate.mov", Output: out})
	require.NoError(t, err)

	argv := f.local.last(t).Steps[0].Argv()
	assert.Equal(t, "thumbnail,scale=640:272", argv[indexOf(argv, "-vf")+1])
}

func TestExtractWav(t *testing.T) {
	f := newFixture(t, testConfig())
	dir := t.TempDir()

	_, err := f.conv.ExtractWav(context.Background(), WavOptions{
		Input:  filepath.Join(dir, "clip.mov"),
		Output: filepath.Join(dir, "clip.mp3"),
	})
	assert.ErrorIs(t, err, ErrNotWav)
	assert.Empty(t, f.local.tasks)

	d, err := f.conv.ExtractWav(context.Background(), WavOptions{Input: filepath.Join(dir, "clip.mov")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip.wav"), d.FileOut)
}

func indexOf(argv []string, s string) int {
	for i, a := range argv {
		if a == s {
			return i
		}
	}
	return -1
}
