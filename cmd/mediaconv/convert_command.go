package main

import (
	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/bootstrap"
	"github.com/maauso/mediaconv/internal/convert"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var req convert.Request
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Run one conversion",
		Long: `Run one conversion of a movie, image sequence or image.

The file type (-f) and conversion type (-t) select the conversion:

  sequence  proxy, web_preview, gif
  movie     prores, mp4, audio, webm, wav, thumb, gif, web_preview
  image     proxy

Sequences are written as a pattern with a frame token (*, #### or %04d),
optionally followed by a frame range: "sh010.####.exr 1001-1100".
Width and height default to the resolution configured for the conversion.`,
		Example: `  mediaconv convert -i /shots/sh010/sh010.####.exr -o /proxy/sh010.####.jpg -f sequence -t proxy
  mediaconv convert -i plate.mov -f movie -t prores -q 2
  mediaconv convert -i plate.mov -f movie -t mp4 --method smedge --depends-on 4711`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDeps(cmd, func(deps *bootstrap.Dependencies) error {
				d, err := deps.Converter.Run(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printDescriptor(cmd, d, jsonOut)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&req.Input, "input", "i", "", "Input file or sequence pattern")
	flags.StringVarP(&req.Output, "output", "o", "", "Output file or sequence pattern")
	// -h is the height shorthand, so help is long-form only.
	flags.Bool("help", false, "help for convert")
	flags.IntVarP(&req.Width, "width", "w", 0, "Output width (0 uses the configured resolution)")
	flags.IntVarP(&req.Height, "height", "h", 0, "Output height (0 uses the configured resolution)")
	flags.BoolVar(&req.HeightOnly, "height-only", false, "Scale to the height and keep the aspect ratio")
	flags.StringVarP(&req.FileType, "file-type", "f", "movie", "Input file type: sequence, movie or image")
	flags.StringVarP(&req.Type, "type", "t", "web_preview", "Conversion type")
	flags.IntVarP(&req.Quality, "quality", "q", 0, "ProRes quality: 0 proxy, 1 low, 2 standard, 3 high")
	flags.StringVar(&req.Method, "method", "", "Processing method: local, smedge, spool or deadline (default from config)")
	flags.StringVar(&req.DependsOn, "depends-on", "", "Job id this conversion waits for")
	flags.StringVar(&req.CommandName, "command-name", "", "Name shown for the job")
	flags.BoolVar(&req.CopyInputPadding, "copy-input-padding", true, "Pad proxy frame numbers like the input")
	flags.StringVar(&req.Ext, "ext", "", "Proxy sequence output extension")
	flags.StringVar(&req.Pad, "pad", "", "Pad the mp4 picture to WIDTHxHEIGHT")
	flags.Float64Var(&req.FrameRate, "fps", 0, "Sequence input frame rate (0 uses the configured rate)")
	flags.Float64Var(&req.OutputFrameRate, "output-fps", 0, "Output frame rate")
	flags.BoolVar(&jsonOut, "json", false, "Print the job descriptor as JSON")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
