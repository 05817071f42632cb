// Package media builds external tool invocations for media conversions.
// Builders are pure: they never touch the filesystem or run anything.
package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Encoding constants shared by the h264 and vp8 delivery presets.
const (
	deliveryScale   = "scale=trunc((a*oh)/2)*2:720"
	deliveryGOP     = "30"
	deliveryBitrate = "2000k"
	aacBitrate      = "160k"
	previewCRF      = "24"
	previewBitrate  = "50M"
)

// Builder produces invocations for the ffmpeg and ImageMagick binaries.
type Builder struct {
	ffmpeg string
	magick string
}

// NewBuilder creates a Builder. Empty paths default to "ffmpeg" and
// "magick" found via PATH.
func NewBuilder(ffmpegPath, magickPath string) *Builder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if magickPath == "" {
		magickPath = "magick"
	}
	return &Builder{ffmpeg: ffmpegPath, magick: magickPath}
}

// FFmpeg returns the configured ffmpeg binary.
func (b *Builder) FFmpeg() string { return b.ffmpeg }

// Magick returns the configured ImageMagick binary.
func (b *Builder) Magick() string { return b.magick }

func (b *Builder) ffmpegCall(args ...string) Invocation {
	return Invocation{Binary: b.ffmpeg, Args: append([]string{"-y"}, args...)}
}

// Resize scales a single image.
func (b *Builder) Resize(in, out string, res Resolution) (Invocation, error) {
	if err := res.Validate(); err != nil {
		return Invocation{}, err
	}
	return Invocation{
		Binary: b.magick,
		Args:   []string{in, "-resize", res.String(), out},
	}, nil
}

// Prores encodes a movie with prores_ks at the given profile, copying audio.
func (b *Builder) Prores(in, out string, q ProresQuality) (Invocation, error) {
	if !q.Valid() {
		return Invocation{}, fmt.Errorf("%w: %d", ErrInvalidQuality, q)
	}
	return b.ffmpegCall(
		"-i", in,
		"-c:v", "prores_ks",
		"-qscale:v", "1",
		"-profile:v", strconv.Itoa(int(q)),
		"-c:a", "copy",
		out,
	), nil
}

// PreviewOptions configures a web preview encode.
type PreviewOptions struct {
	// StartFrame is the first frame of a sequence input.
	StartFrame int
	// FrameRate is the input frame rate of a sequence.
	FrameRate float64
	// OutputFrameRate defaults to FrameRate.
	OutputFrameRate float64
	// Resolution is the exact output size; the picture is fit and padded.
	Resolution Resolution
}

// FitPadFilter scales to fit inside res with even dimensions and pads the
// picture centered to exactly res.
func FitPadFilter(res Resolution) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease:force_divisible_by=2,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		res.Width, res.Height, res.Width, res.Height,
	)
}

func (b *Builder) previewTail(out string, opts PreviewOptions) []string {
	fps := opts.OutputFrameRate
	if fps <= 0 {
		fps = opts.FrameRate
	}
	return []string{
		"-c:v", "libx264",
		"-profile:v", "high",
		"-crf", previewCRF,
		"-b:v", previewBitrate,
		"-pix_fmt", "yuv420p",
		"-r", formatRate(fps),
		"-filter:v", FitPadFilter(opts.Resolution),
		out,
	}
}

func previewCheck(opts PreviewOptions) error {
	if opts.Resolution.HeightOnly {
		return fmt.Errorf("%w: web preview needs an exact resolution", ErrInvalidDimensions)
	}
	if err := opts.Resolution.Validate(); err != nil {
		return err
	}
	if opts.FrameRate <= 0 {
		return fmt.Errorf("%w: frame rate %g", ErrInvalidDimensions, opts.FrameRate)
	}
	return nil
}

// WebPreviewSequence encodes an image sequence given as a numeric pattern
// (e.g. "shot.%04d.jpg") into an h264 review movie.
func (b *Builder) WebPreviewSequence(numPattern, out string, opts PreviewOptions) (Invocation, error) {
	if err := previewCheck(opts); err != nil {
		return Invocation{}, err
	}
	args := []string{
		"-start_number", strconv.Itoa(opts.StartFrame),
		"-framerate", formatRate(opts.FrameRate),
		"-i", numPattern,
	}
	return b.ffmpegCall(append(args, b.previewTail(out, opts)...)...), nil
}

// WebPreviewMovie encodes a movie into an h264 review movie.
func (b *Builder) WebPreviewMovie(in, out string, opts PreviewOptions) (Invocation, error) {
	if err := previewCheck(opts); err != nil {
		return Invocation{}, err
	}
	return b.ffmpegCall(append([]string{"-i", in}, b.previewTail(out, opts)...)...), nil
}

// MP4Options configures an mp4 delivery encode.
type MP4Options struct {
	// Pad, when set, pads the 720p picture centered to this exact size.
	Pad *Resolution
}

// MP4 encodes an h264/aac mp4 scaled to 720 lines.
func (b *Builder) MP4(in, out string, opts MP4Options) (Invocation, error) {
	filter := deliveryScale
	if opts.Pad != nil {
		if opts.Pad.HeightOnly {
			return Invocation{}, fmt.Errorf("%w: pad needs an exact resolution", ErrInvalidDimensions)
		}
		if err := opts.Pad.Validate(); err != nil {
			return Invocation{}, err
		}
		filter += fmt.Sprintf(",pad=%d:%d:(ow-iw)/2:(oh-ih)/2", opts.Pad.Width, opts.Pad.Height)
	}
	return b.ffmpegCall(
		"-i", in,
		"-strict", "experimental",
		"-c:a", "aac",
		"-b:a", aacBitrate,
		"-ac", "2",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-vf", filter,
		"-g", deliveryGOP,
		"-b:v", deliveryBitrate,
		"-profile:v", "high",
		"-bf", "0",
		"-f", "mp4",
		out,
	), nil
}

// WebM encodes a vp8/vorbis webm scaled to 720 lines.
func (b *Builder) WebM(in, out string) Invocation {
	return b.ffmpegCall(
		"-i", in,
		"-c:a", "libvorbis",
		"-aq", "60",
		"-ac", "2",
		"-pix_fmt", "yuv420p",
		"-c:v", "libvpx",
		"-vf", deliveryScale,
		"-g", deliveryGOP,
		"-b:v", deliveryBitrate,
		"-quality", "realtime",
		"-cpu-used", "0",
		"-qmin", "10",
		"-qmax", "42",
		"-f", "webm",
		out,
	)
}

// Thumbnail extracts a single representative frame scaled to res.
func (b *Builder) Thumbnail(in, out string, res Resolution) (Invocation, error) {
	if err := res.Validate(); err != nil {
		return Invocation{}, err
	}
	w := strconv.Itoa(res.Width)
	if res.HeightOnly {
		w = "-2"
	}
	return b.ffmpegCall(
		"-i", in,
		"-vf", fmt.Sprintf("thumbnail,scale=%s:%d", w, res.Height),
		"-frames:v", "1",
		out,
	), nil
}

// GIFOptions configures an animated gif encode.
type GIFOptions struct {
	// StartFrame and FrameRate apply to sequence inputs only.
	StartFrame int
	FrameRate  float64
	Sequence   bool
	// OutputFrameRate is the gif frame rate.
	OutputFrameRate float64
	// Width is the gif width; height follows the aspect ratio.
	Width int
}

// GIF encodes an animated gif with a generated palette.
func (b *Builder) GIF(in, out string, opts GIFOptions) (Invocation, error) {
	if opts.Width <= 0 || opts.OutputFrameRate <= 0 {
		return Invocation{}, fmt.Errorf("%w: width=%d, fps=%g", ErrInvalidDimensions, opts.Width, opts.OutputFrameRate)
	}
	var args []string
	if opts.Sequence {
		if opts.FrameRate <= 0 {
			return Invocation{}, fmt.Errorf("%w: frame rate %g", ErrInvalidDimensions, opts.FrameRate)
		}
		args = append(args,
			"-start_number", strconv.Itoa(opts.StartFrame),
			"-framerate", formatRate(opts.FrameRate),
		)
	}
	filter := fmt.Sprintf(
		"fps=%s,scale=%d:-2:flags=lanczos,split[s0][s1];[s0]palettegen[p];[s1][p]paletteuse",
		formatRate(opts.OutputFrameRate), opts.Width,
	)
	args = append(args, "-i", in, "-vf", filter, "-loop", "0", out)
	return b.ffmpegCall(args...), nil
}

// TitleOptions configures a title card.
type TitleOptions struct {
	Text       string
	Size       Resolution
	Background string
	// FontColor is a hex color without the leading '#'.
	FontColor string
	Font      string
	FontSize  int
}

// Title renders centered text on a solid or transparent background.
func (b *Builder) Title(out string, opts TitleOptions) (Invocation, error) {
	if opts.Size.HeightOnly {
		return Invocation{}, fmt.Errorf("%w: title needs an exact size", ErrInvalidDimensions)
	}
	if err := opts.Size.Validate(); err != nil {
		return Invocation{}, err
	}
	return Invocation{
		Binary: b.magick,
		Args: []string{
			"-background", opts.Background,
			"-fill", "#" + strings.TrimPrefix(opts.FontColor, "#"),
			"-size", opts.Size.String(),
			"-gravity", "center",
			"-font", opts.Font,
			"-pointsize", strconv.Itoa(opts.FontSize),
			"label:" + opts.Text,
			out,
		},
	}, nil
}

func formatRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
