package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/maauso/mediaconv/internal/audio"
	"github.com/maauso/mediaconv/internal/dispatch"
	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
)

// ProresOptions configures ProresMov.
type ProresOptions struct {
	Common
	Input string
	// Output defaults to <stem>_prores_<label>.mov.
	Output  string
	Quality media.ProresQuality
}

// ProresMov transcodes a movie to prores.
func (c *Converter) ProresMov(ctx context.Context, opts ProresOptions) (*job.Descriptor, error) {
	const kind = "prores"
	method := c.method(opts.Method)
	d, err := c.dispatcher(method)
	if err != nil {
		return nil, err
	}
	if !opts.Quality.Valid() {
		c.logger.Error("invalid prores quality", slog.Int("quality", int(opts.Quality)))
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, opts.Quality)
	}
	if _, err := c.requireCategory(kind, opts.Input, media.CategoryMovie); err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = media.Stem(opts.Input) + "_prores_" + opts.Quality.Label() + ".mov"
	}

	inv := c.remote("convert", "-i", opts.Input, "-o", output, "-f", string(media.CategoryMovie), "-t", kind,
		"-q", strconv.Itoa(int(opts.Quality)))
	if !method.IsRemote() {
		if inv, err = c.builder.Prores(opts.Input, output, opts.Quality); err != nil {
			return nil, err
		}
	}
	return c.dispatchOne(ctx, d, method, opts.Common, commandName(opts.Common, kind, opts.Input), inv, output)
}

// ThumbOptions configures MovieThumb.
type ThumbOptions struct {
	Common
	Input  string
	Output string
	// Resolution defaults to the configured thumb_cine resolution.
	Resolution *media.Resolution
}

// MovieThumb extracts a representative frame from a movie.
func (c *Converter) MovieThumb(ctx context.Context, opts ThumbOptions) (*job.Descriptor, error) {
	const kind = "thumb"
	method := c.method(opts.Method)
	d, err := c.dispatcher(method)
	if err != nil {
		return nil, err
	}
	if err := c.requireOutput(kind, opts.Output); err != nil {
		return nil, err
	}
	res, err := c.resolution(opts.Resolution, c.cfg.Resolution.ThumbCine)
	if err != nil {
		return nil, err
	}

	inv := c.remote("convert", append([]string{"-i", opts.Input, "-o", opts.Output,
		"-f", string(media.CategoryMovie), "-t", kind}, resolutionArgs(res)...)...)
	if !method.IsRemote() {
		if inv, err = c.builder.Thumbnail(opts.Input, opts.Output, res); err != nil {
			return nil, err
		}
	}
	return c.dispatchOne(ctx, d, method, opts.Common, commandName(opts.Common, kind, opts.Input), inv, opts.Output)
}

// MP4Options configures MP4.
type MP4Options struct {
	Common
	Input string
	// Output defaults to <stem>.mp4, or <stem>_audio.mp4 for audio-only.
	Output string
	// AudioOnly drops the video stream.
	AudioOnly bool
	// Pad pads the 720p picture centered to an exact size.
	Pad *media.Resolution
}

// MP4 encodes an h264/aac delivery movie, or an audio-only mp4.
func (c *Converter) MP4(ctx context.Context, opts MP4Options) (*job.Descriptor, error) {
	kind := "mp4"
	if opts.AudioOnly {
		kind = "audio"
	}
	method := c.method(opts.Method)
	d, err := c.dispatcher(method)
	if err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = media.ChangeExtension(opts.Input, "mp4")
	}
	if opts.AudioOnly {
		output = audio.AudioOnlyName(output)
	}

	args := []string{"-i", opts.Input, "-o", output, "-f", string(media.CategoryMovie), "-t", kind}
	if opts.Pad != nil {
		args = append(args, "--pad", opts.Pad.String())
	}
	inv := c.remote("convert", args...)
	if !method.IsRemote() {
		if opts.AudioOnly {
			inv = c.audio.AAC(opts.Input, output)
		} else if inv, err = c.builder.MP4(opts.Input, output, media.MP4Options{Pad: opts.Pad}); err != nil {
			return nil, err
		}
	}
	return c.dispatchOne(ctx, d, method, opts.Common, commandName(opts.Common, kind, opts.Input), inv, output)
}

// WebMOptions configures WebM.
type WebMOptions struct {
	Common
	Input string
	// Output defaults to <stem>.webm.
	Output string
}

// WebM encodes a vp8/vorbis delivery movie.
func (c *Converter) WebM(ctx context.Context, opts WebMOptions) (*job.Descriptor, error) {
	const kind = "webm"
	method := c.method(opts.Method)
	d, err := c.dispatcher(method)
	if err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = media.ChangeExtension(opts.Input, "webm")
	}

	inv := c.remote("convert", "-i", opts.Input, "-o", output, "-f", string(media.CategoryMovie), "-t", kind)
	if !method.IsRemote() {
		inv = c.builder.WebM(opts.Input, output)
	}
	return c.dispatchOne(ctx, d, method, opts.Common, commandName(opts.Common, kind, opts.Input), inv, output)
}

// WavOptions configures ExtractWav.
type WavOptions struct {
	Common
	Input string
	// Output defaults to <stem>.wav and must end in .wav.
	Output string
}

// ExtractWav pulls the audio track of a movie into a wav file.
func (c *Converter) ExtractWav(ctx context.Context, opts WavOptions) (*job.Descriptor, error) {
	const kind = "wav"
	method := c.method(opts.Method)
	d, err := c.dispatcher(method)
	if err != nil {
		return nil, err
	}
	if _, err := c.requireCategory(kind, opts.Input, media.CategoryMovie); err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = media.ChangeExtension(opts.Input, "wav")
	}
	if !audio.IsWav(output) {
		c.logger.Error("wav extraction needs a .wav output", slog.String("output", output))
		return nil, fmt.Errorf("%w: %s", ErrNotWav, output)
	}

	inv := c.remote("convert", "-i", opts.Input, "-o", output, "-f", string(media.CategoryMovie), "-t", kind)
	if !method.IsRemote() {
		if inv, err = c.audio.Wav(opts.Input, output); err != nil {
			return nil, err
		}
	}
	return c.dispatchOne(ctx, d, method, opts.Common, commandName(opts.Common, kind, opts.Input), inv, output)
}

// dispatchOne prepares the output of a local run and submits a single
// invocation. Remote runs leave output preparation to the worker.
func (c *Converter) dispatchOne(ctx context.Context, d dispatch.Dispatcher, method job.Method, common Common, name string, inv media.Invocation, output string) (*job.Descriptor, error) {
	if !method.IsRemote() {
		if err := c.prepare(output); err != nil {
			return nil, err
		}
	}
	task := dispatch.Single(name, inv)
	task.DependsOn = common.DependsOn
	return c.submit(ctx, d, task, output)
}
