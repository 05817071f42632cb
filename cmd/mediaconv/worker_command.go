package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/bootstrap"
	"github.com/maauso/mediaconv/internal/spool"
)

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run queued spool jobs",
		Long: `Run the jobs queued with --method spool, one at a time, in queue order.
A job waiting on another spool job runs after it completes and fails if it fails.
Only one worker runs at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDeps(cmd, func(deps *bootstrap.Dependencies) error {
				store, err := deps.Spool(cmd.Context())
				if err != nil {
					return err
				}
				worker := spool.NewWorker(store, deps.Local, ctx.config.Spool.LockPath,
					spool.WithLogger(ctx.logger),
					spool.WithPollInterval(pollInterval),
				)
				stats, err := worker.Drain(cmd.Context(), follow)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed: %d, failed: %d, interrupted: %d\n",
					stats.Completed, stats.Failed, stats.Interrupted)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "Keep polling for new jobs until interrupted")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", spool.DefaultPollInterval, "Poll interval with --follow")
	return cmd
}
