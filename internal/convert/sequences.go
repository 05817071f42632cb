package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/maauso/mediaconv/internal/dispatch"
	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
	"github.com/maauso/mediaconv/internal/sequence"
	"github.com/maauso/mediaconv/internal/storage"
)

// ProxySequenceOptions configures ProxySequence.
type ProxySequenceOptions struct {
	Common
	// Input is the source sequence pattern, optionally followed by a frame range.
	Input string
	// Output is the proxy sequence pattern.
	Output string
	// Resolution is the proxy size.
	Resolution media.Resolution
	// CopyInputPadding makes the output padding match the input's; otherwise
	// the configured default padding is used.
	CopyInputPadding bool
	// Ext overrides the output extension.
	Ext string
}

// resolveSequence parses pattern. In strict mode an invalid pattern is an
// error; in best-effort mode it is logged and the partial result is used.
func (c *Converter) resolveSequence(role, pattern string, opts ...sequence.Option) (*sequence.Sequence, error) {
	seq, err := sequence.Parse(pattern, opts...)
	if err == nil {
		return seq, nil
	}
	c.logger.Error("invalid sequence pattern",
		slog.String("role", role),
		slog.String("pattern", pattern),
		slog.Bool("best_effort", c.cfg.Defaults.BestEffortSequences),
	)
	if c.cfg.Defaults.BestEffortSequences {
		return seq, nil
	}
	return nil, fmt.Errorf("%s sequence: %w", role, err)
}

// ProxySequence resizes every frame of a sequence. Locally it runs one
// resize per frame found on disk and returns nil when no frame matches.
func (c *Converter) ProxySequence(ctx context.Context, opts ProxySequenceOptions) (*job.Descriptor, error) {
	const kind = "proxy"
	method := c.method(opts.Method)
	d, err := c.dispatcher(method)
	if err != nil {
		return nil, err
	}
	if err := c.requireOutput(kind, opts.Output); err != nil {
		return nil, err
	}
	if err := opts.Resolution.Validate(); err != nil {
		return nil, err
	}

	defaultPadding := c.cfg.Defaults.Padding
	in, err := c.resolveSequence("input", opts.Input, sequence.WithDefaultPadding(defaultPadding))
	if err != nil {
		return nil, err
	}
	padding := defaultPadding
	if opts.CopyInputPadding {
		padding = in.Padding
	}
	out, err := c.resolveSequence("output", opts.Output, sequence.WithPadding(padding))
	if err != nil {
		return nil, err
	}

	name := commandName(opts.Common, kind, in.HashPattern())

	if method.IsRemote() {
		args := []string{"-i", opts.Input, "-o", opts.Output, "-f", string(media.CategorySequence), "-t", kind}
		args = append(args, resolutionArgs(opts.Resolution)...)
		args = append(args, "--copy-input-padding="+strconv.FormatBool(opts.CopyInputPadding))
		if opts.Ext != "" {
			args = append(args, "--ext", opts.Ext)
		}
		task := dispatch.Single(name, c.remote("convert", args...))
		task.DependsOn = opts.DependsOn
		return c.submit(ctx, d, task, out.String())
	}

	matches, err := sequence.MatchFrames(in, out, opts.Ext)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		c.logger.Info("no frames match input sequence, nothing to do",
			slog.String("input", in.StarPattern()),
		)
		return nil, nil
	}
	if err := storage.PrepareDir(out.Dir); err != nil {
		return nil, err
	}

	task := dispatch.Task{Name: name, DependsOn: opts.DependsOn}
	for _, m := range matches {
		if err := c.prepare(m.Output); err != nil {
			return nil, err
		}
		inv, err := c.builder.Resize(m.Input, m.Output, opts.Resolution)
		if err != nil {
			return nil, err
		}
		task.Steps = append(task.Steps, inv)
	}
	c.logger.Info("resolved sequence frames",
		slog.String("input", in.StarPattern()),
		slog.Int("frames", len(matches)),
		slog.Int("output_padding", out.Padding),
	)
	return c.submit(ctx, d, task, out.String())
}

// WebPreviewOptions configures WebPreview.
type WebPreviewOptions struct {
	Common
	Input  string
	Output string
	// Resolution defaults to the configured video_review resolution.
	Resolution *media.Resolution
	// FrameRate is the sequence input rate; defaults to the configured frame rate.
	FrameRate float64
	// OutputFrameRate defaults to FrameRate.
	OutputFrameRate float64
}

// WebPreview encodes an h264 review movie from a sequence or a movie.
func (c *Converter) WebPreview(ctx context.Context, opts WebPreviewOptions) (*job.Descriptor, error) {
	const kind = "web_preview"
	method := c.method(opts.Method)
	d, err := c.dispatcher(method)
	if err != nil {
		return nil, err
	}
	if err := c.requireOutput(kind, opts.Output); err != nil {
		return nil, err
	}
	cat, err := c.sequenceOrMovie(kind, opts.Input)
	if err != nil {
		return nil, err
	}
	res, err := c.resolution(opts.Resolution, c.cfg.Resolution.VideoReview)
	if err != nil {
		return nil, err
	}
	fps := opts.FrameRate
	if fps <= 0 {
		fps = c.cfg.Defaults.FrameRate
	}
	name := commandName(opts.Common, kind, opts.Input)

	if method.IsRemote() {
		args := []string{"-i", opts.Input, "-o", opts.Output, "-f", string(cat), "-t", kind}
		args = append(args, resolutionArgs(res)...)
		args = append(args, rateArgs(opts.FrameRate, opts.OutputFrameRate)...)
		task := dispatch.Single(name, c.remote("convert", args...))
		task.DependsOn = opts.DependsOn
		return c.submit(ctx, d, task, opts.Output)
	}

	previewOpts := media.PreviewOptions{
		FrameRate:       fps,
		OutputFrameRate: opts.OutputFrameRate,
		Resolution:      res,
	}
	var inv media.Invocation
	if cat == media.CategorySequence {
		in, err := c.resolveSequence("input", opts.Input, sequence.WithDefaultPadding(c.cfg.Defaults.Padding))
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(in.Ext, ".jpg") {
			c.logger.Warn("web preview input is not a jpg sequence", slog.String("input", opts.Input))
		}
		previewOpts.StartFrame = in.StartFrame
		inv, err = c.builder.WebPreviewSequence(in.NumPattern(), opts.Output, previewOpts)
		if err != nil {
			return nil, err
		}
	} else {
		inv, err = c.builder.WebPreviewMovie(opts.Input, opts.Output, previewOpts)
		if err != nil {
			return nil, err
		}
	}

	if err := c.prepare(opts.Output); err != nil {
		return nil, err
	}
	task := dispatch.Single(name, inv)
	task.DependsOn = opts.DependsOn
	return c.submit(ctx, d, task, opts.Output)
}

// GIFOptions configures GIF.
type GIFOptions struct {
	Common
	Input string
	// Output defaults to the input stem with a .gif extension.
	Output string
	// Width of the gif; height follows the aspect ratio. Defaults to the
	// width of the configured thumb resolution.
	Width int
	// FrameRate is the sequence input rate; defaults to the configured frame rate.
	FrameRate float64
	// OutputFrameRate is the gif rate; defaults to 12.
	OutputFrameRate float64
}

const defaultGIFRate = 12

// GIF encodes an animated gif from a movie or a sequence.
func (c *Converter) GIF(ctx context.Context, opts GIFOptions) (*job.Descriptor, error) {
	const kind = "gif"
	method := c.method(opts.Method)
	d, err := c.dispatcher(method)
	if err != nil {
		return nil, err
	}
	cat, err := c.sequenceOrMovie(kind, opts.Input)
	if err != nil {
		return nil, err
	}

	var in *sequence.Sequence
	if cat == media.CategorySequence {
		if in, err = c.resolveSequence("input", opts.Input, sequence.WithDefaultPadding(c.cfg.Defaults.Padding)); err != nil {
			return nil, err
		}
	}

	output := opts.Output
	if output == "" {
		if in != nil {
			output = strings.TrimRight(in.Prefix(), "._-") + ".gif"
		} else {
			output = media.ChangeExtension(opts.Input, "gif")
		}
	}

	width := opts.Width
	if width <= 0 {
		thumb, err := media.ParseResolution(c.cfg.Resolution.Thumb)
		if err != nil {
			return nil, err
		}
		width = thumb.Width
	}
	outFPS := opts.OutputFrameRate
	if outFPS <= 0 {
		outFPS = defaultGIFRate
	}
	fps := opts.FrameRate
	if fps <= 0 {
		fps = c.cfg.Defaults.FrameRate
	}
	name := commandName(opts.Common, kind, opts.Input)

	if method.IsRemote() {
		args := []string{"-i", opts.Input, "-o", output, "-f", string(cat), "-t", kind,
			"-w", strconv.Itoa(width)}
		args = append(args, rateArgs(opts.FrameRate, outFPS)...)
		task := dispatch.Single(name, c.remote("convert", args...))
		task.DependsOn = opts.DependsOn
		return c.submit(ctx, d, task, output)
	}

	gifOpts := media.GIFOptions{OutputFrameRate: outFPS, Width: width}
	input := opts.Input
	if in != nil {
		input = in.NumPattern()
		gifOpts.Sequence = true
		gifOpts.StartFrame = in.StartFrame
		gifOpts.FrameRate = fps
	}
	inv, err := c.builder.GIF(input, output, gifOpts)
	if err != nil {
		return nil, err
	}

	if err := c.prepare(output); err != nil {
		return nil, err
	}
	task := dispatch.Single(name, inv)
	task.DependsOn = opts.DependsOn
	return c.submit(ctx, d, task, output)
}

// sequenceOrMovie classifies the input of conversions that accept either.
// A frame token marks a sequence whatever its extension maps to.
func (c *Converter) sequenceOrMovie(kind, path string) (media.Category, error) {
	if sequence.IsPattern(path) {
		return media.CategorySequence, nil
	}
	return c.requireCategory(kind, path, media.CategorySequence, media.CategoryMovie)
}

func rateArgs(fps, outFPS float64) []string {
	var args []string
	if fps > 0 {
		args = append(args, "--fps", strconv.FormatFloat(fps, 'f', -1, 64))
	}
	if outFPS > 0 {
		args = append(args, "--output-fps", strconv.FormatFloat(outFPS, 'f', -1, 64))
	}
	return args
}

// resolution returns explicit, or the configured named resolution.
func (c *Converter) resolution(explicit *media.Resolution, named string) (media.Resolution, error) {
	if explicit != nil {
		return *explicit, explicit.Validate()
	}
	return media.ParseResolution(named)
}
