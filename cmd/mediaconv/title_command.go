package main

import (
	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/bootstrap"
	"github.com/maauso/mediaconv/internal/convert"
	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/media"
)

func newTitleCommand(ctx *commandContext) *cobra.Command {
	var opts convert.TitleOptions
	var size string
	var method string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "title",
		Short: "Render a title card image",
		Long:  "Render centered text on a solid or transparent background. Unset options use the [title] configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if size != "" {
				res, err := media.ParseResolution(size)
				if err != nil {
					return err
				}
				opts.Size = &res
			}
			opts.Method = job.Method(method)
			return ctx.withDeps(cmd, func(deps *bootstrap.Dependencies) error {
				d, err := deps.Converter.Title(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return printDescriptor(cmd, d, jsonOut)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Output, "output", "o", convert.DefaultTitleOutput, "Output image")
	flags.StringVar(&opts.Text, "text", convert.DefaultTitleText, "Title text")
	flags.StringVar(&size, "size", "", "Image size as WIDTHxHEIGHT")
	flags.StringVar(&opts.Background, "bg", "", "Background color, or transparent")
	flags.StringVar(&opts.FontColor, "color", "", "Font color as hex, e.g. ffffff")
	flags.StringVar(&opts.Font, "font", "", "Font name")
	flags.IntVar(&opts.FontSize, "font-size", 0, "Font size in points")
	flags.StringVar(&method, "method", "", "Processing method: local, smedge, spool or deadline")
	flags.StringVar(&opts.DependsOn, "depends-on", "", "Job id this job waits for")
	flags.BoolVar(&jsonOut, "json", false, "Print the job descriptor as JSON")

	return cmd
}
