package convert

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
)

// Title card defaults that are not part of the configuration.
const (
	DefaultTitleOutput = "sample_image.png"
	DefaultTitleText   = "Sample Title Text"
)

// TitleOptions configures Title. Empty fields fall back to the [title]
// configuration section.
type TitleOptions struct {
	Common
	// Output defaults to DefaultTitleOutput.
	Output string
	// Text defaults to DefaultTitleText.
	Text string
	// Size defaults to the configured title resolution.
	Size       *media.Resolution
	Background string
	FontColor  string
	Font       string
	FontSize   int
}

// Title renders a title card image.
func (c *Converter) Title(ctx context.Context, opts TitleOptions) (*job.Descriptor, error) {
	const kind = "title"
	method := c.method(opts.Method)
	d, err := c.dispatcher(method)
	if err != nil {
		return nil, err
	}

	t := media.TitleOptions{
		Text:       opts.Text,
		Background: opts.Background,
		FontColor:  opts.FontColor,
		Font:       opts.Font,
		FontSize:   opts.FontSize,
	}
	if t.Text == "" {
		t.Text = DefaultTitleText
	}
	if t.Background == "" {
		t.Background = c.cfg.Title.Background
	}
	if t.FontColor == "" {
		t.FontColor = c.cfg.Title.FontColor
	}
	if t.Font == "" {
		t.Font = c.cfg.Title.Font
	}
	if t.FontSize <= 0 {
		t.FontSize = c.cfg.Title.FontSize
	}
	if t.Size, err = c.resolution(opts.Size, c.cfg.Resolution.Title); err != nil {
		return nil, err
	}
	output := opts.Output
	if output == "" {
		output = DefaultTitleOutput
	}

	inv := c.remote("title", "-o", output,
		"--text", t.Text,
		"--size", t.Size.String(),
		"--bg", t.Background,
		"--color", t.FontColor,
		"--font", t.Font,
		"--font-size", strconv.Itoa(t.FontSize),
	)
	if !method.IsRemote() {
		if inv, err = c.builder.Title(output, t); err != nil {
			return nil, err
		}
	}
	return c.dispatchOne(ctx, d, method, opts.Common, commandName(opts.Common, kind, output), inv, output)
}

// ResizeOptions configures ResizeImage.
type ResizeOptions struct {
	Common
	Input string
	// Output defaults to <stem>_proxy<ext>.
	Output     string
	Resolution media.Resolution
}

// ResizeImage resizes a single image.
func (c *Converter) ResizeImage(ctx context.Context, opts ResizeOptions) (*job.Descriptor, error) {
	const kind = "proxy"
	method := c.method(opts.Method)
	d, err := c.dispatcher(method)
	if err != nil {
		return nil, err
	}
	if _, err := c.requireCategory(kind, opts.Input, media.CategoryImage); err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = media.Stem(opts.Input) + "_proxy" + filepath.Ext(opts.Input)
	}

	inv := c.remote("convert", append([]string{"-i", opts.Input, "-o", output,
		"-f", string(media.CategoryImage), "-t", kind}, resolutionArgs(opts.Resolution)...)...)
	if !method.IsRemote() {
		if inv, err = c.builder.Resize(opts.Input, output, opts.Resolution); err != nil {
			return nil, err
		}
	} else if err := opts.Resolution.Validate(); err != nil {
		return nil, err
	}
	return c.dispatchOne(ctx, d, method, opts.Common, commandName(opts.Common, kind, opts.Input), inv, output)
}
