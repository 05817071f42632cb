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

func TestTitle_Defaults(t *testing.T) {
	f := newFixture(t, testConfig())

	d, err := f.conv.Title(context.Background(), TitleOptions{Common: Common{Method: job.MethodSpool}})
	require.NoError(t, err)
	assert.Equal(t, DefaultTitleOutput, d.FileOut)
	assert.Equal(t, "title "+DefaultTitleOutput, d.Name)

	assert.Equal(t, []string{
		"mediaconv", "title", "-o", DefaultTitleOutput,
		"--text", DefaultTitleText,
		"--size", "1920x1080",
		"--bg", "transparent",
		"--color", "ffffff",
		"--font", "Arial",
		"--font-size", "120",
		"--method", "local",
	}, f.spool.last(t).Steps[0].Argv())
}

func TestTitle_Local(t *testing.T) {
	f := newFixture(t, testConfig())
	out := filepath.Join(t.TempDir(), "card.png")

	_, err := f.conv.Title(context.Background(), TitleOptions{
		Output:    out,
		Size:      &media.Resolution{Width: 1280, Height: 720},
		FontColor: "#ff0000",
	})
	require.NoError(t, err)

	step := f.local.last(t).Steps[0]
	assert.Equal(t, []string{
		"magick",
		"-background", "transparent",
		"-fill", "#ff0000",
		"-size", "1280x720",
		"-gravity", "center",
		"-font", "Arial",
		"-pointsize", "120",
		"label:Sample Title Text",
		out,
	}, step.Argv())
	assert.Contains(t, step.String(), "'label:Sample Title Text'")
}

func TestTitle_RejectsHeightOnlySize(t *testing.T) {
	f := newFixture(t, testConfig())
	_, err := f.conv.Title(context.Background(), TitleOptions{
		Output: filepath.Join(t.TempDir(), "card.png"),
		Size:   &media.Resolution{Height: 720, HeightOnly: true},
	})
	assert.ErrorIs(t, err, media.ErrInvalidDimensions)
}

func TestResizeImage(t *testing.T) {
	f := newFixture(t, testConfig())
	in := filepath.Join(t.TempDir(), "still.png")

	d, err := f.conv.ResizeImage(context.Background(), ResizeOptions{
		Input:      in,
		Resolution: media.Resolution{Width: 320, Height: 180},
	})
	require.NoError(t, err)
	assert.Equal(t, media.Stem(in)+"_proxy.png", d.FileOut)
	assert.Equal(t, []string{"magick", in, "-resize", "320x180", d.FileOut}, f.local.last(t).Steps[0].Argv())

	_, err = f.conv.ResizeImage(context.Background(), ResizeOptions{
		Input:      "/shots/plate.mov",
		Resolution: media.Resolution{Width: 320, Height: 180},
	})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}
