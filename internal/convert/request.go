package convert

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
)

// Request is a single conversion as given on the command line.
type Request struct {
	Input      string `validate:"required"`
	Output     string
	Width      int    `validate:"omitempty,min=1,max=16384"`
	Height     int    `validate:"omitempty,min=1,max=16384"`
	HeightOnly bool
	FileType   string `validate:"required,oneof=sequence movie image"`
	Type       string `validate:"required,oneof=proxy mp4 web_preview prores thumb gif audio webm wav"`
	Quality    int    `validate:"min=0,max=3"`
	Method     string `validate:"omitempty,oneof=local smedge spool deadline"`
	DependsOn  string
	// CommandName overrides the generated descriptor name.
	CommandName      string
	CopyInputPadding bool
	// Ext overrides the proxy sequence output extension.
	Ext string
	// Pad is an exact WxH size the mp4 picture is padded to.
	Pad             string  `validate:"omitempty,resolution"`
	FrameRate       float64 `validate:"gte=0"`
	OutputFrameRate float64 `validate:"gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("resolution", func(fl validator.FieldLevel) bool {
		_, err := media.ParseResolution(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the request fields.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// resolution returns the requested size, or nil when neither dimension was given.
func (r Request) resolution() *media.Resolution {
	if r.HeightOnly && r.Height > 0 {
		return &media.Resolution{Height: r.Height, HeightOnly: true}
	}
	if r.Width > 0 && r.Height > 0 {
		return &media.Resolution{Width: r.Width, Height: r.Height}
	}
	return nil
}

func (r Request) common() Common {
	return Common{
		Method:      job.Method(r.Method),
		DependsOn:   r.DependsOn,
		CommandName: r.CommandName,
	}
}

// Run validates req and dispatches exactly one conversion. The returned
// descriptor is nil when the conversion had nothing to do.
func (c *Converter) Run(ctx context.Context, req Request) (*job.Descriptor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	common := req.common()
	res := req.resolution()

	switch media.Category(req.FileType) {
	case media.CategorySequence:
		switch req.Type {
		case "proxy":
			size, err := c.resolution(res, c.cfg.Resolution.VideoReview)
			if err != nil {
				return nil, err
			}
			return c.ProxySequence(ctx, ProxySequenceOptions{
				Common:           common,
				Input:            req.Input,
				Output:           req.Output,
				Resolution:       size,
				CopyInputPadding: req.CopyInputPadding,
				Ext:              req.Ext,
			})
		case "web_preview":
			return c.WebPreview(ctx, WebPreviewOptions{
				Common: common, Input: req.Input, Output: req.Output, Resolution: res,
				FrameRate: req.FrameRate, OutputFrameRate: req.OutputFrameRate,
			})
		case "gif":
			return c.GIF(ctx, GIFOptions{
				Common: common, Input: req.Input, Output: req.Output, Width: req.Width,
				FrameRate: req.FrameRate, OutputFrameRate: req.OutputFrameRate,
			})
		}
	case media.CategoryMovie:
		switch req.Type {
		case "prores":
			return c.ProresMov(ctx, ProresOptions{
				Common: common, Input: req.Input, Output: req.Output, Quality: media.ProresQuality(req.Quality),
			})
		case "audio", "mp4":
			opts := MP4Options{Common: common, Input: req.Input, Output: req.Output, AudioOnly: req.Type == "audio"}
			if req.Pad != "" {
				pad, err := media.ParseResolution(req.Pad)
				if err != nil {
					return nil, err
				}
				opts.Pad = &pad
			}
			return c.MP4(ctx, opts)
		case "thumb":
			return c.MovieThumb(ctx, ThumbOptions{Common: common, Input: req.Input, Output: req.Output, Resolution: res})
		case "webm":
			return c.WebM(ctx, WebMOptions{Common: common, Input: req.Input, Output: req.Output})
		case "wav":
			return c.ExtractWav(ctx, WavOptions{Common: common, Input: req.Input, Output: req.Output})
		case "gif":
			return c.GIF(ctx, GIFOptions{
				Common: common, Input: req.Input, Output: req.Output, Width: req.Width,
				OutputFrameRate: req.OutputFrameRate,
			})
		case "web_preview":
			return c.WebPreview(ctx, WebPreviewOptions{
				Common: common, Input: req.Input, Output: req.Output, Resolution: res,
				OutputFrameRate: req.OutputFrameRate,
			})
		}
	case media.CategoryImage:
		if req.Type == "proxy" {
			size, err := c.resolution(res, c.cfg.Resolution.Thumb)
			if err != nil {
				return nil, err
			}
			return c.ResizeImage(ctx, ResizeOptions{Common: common, Input: req.Input, Output: req.Output, Resolution: size})
		}
	}

	c.logger.Error("conversion not defined")
	return nil, fmt.Errorf("%w: %s %s", ErrConversionNotDefined, req.FileType, req.Type)
}
