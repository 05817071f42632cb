package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check that ffmpeg and ImageMagick are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.ToolRequirements(cfg.Paths.FFmpeg, cfg.Paths.Magick))

			if useJSON(cmd, jsonOut) {
				if err := writeJSON(cmd, statuses); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(statuses))
				for _, s := range statuses {
					state := "ok"
					detail := s.Path
					if !s.Available {
						state = "missing"
						detail = s.Detail
					}
					rows = append(rows, []string{s.Name, s.Command, state, detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Tool", "Command", "Status", "Detail"}, rows))
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				names := make([]string, len(missing))
				for i, m := range missing {
					names[i] = m.Name
				}
				return fmt.Errorf("missing required tools: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}
