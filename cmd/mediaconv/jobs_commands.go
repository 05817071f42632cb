package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/bootstrap"
	"github.com/maauso/mediaconv/internal/job"
	"github.com/maauso/mediaconv/internal/metadata"
	"github.com/maauso/mediaconv/internal/spool"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect recorded and queued jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsQueueCommand(ctx))
	jobsCmd.AddCommand(newJobsFarmStatusCommand(ctx))
	return jobsCmd
}

func readableMetadata(err error) error {
	if errors.Is(err, metadata.ErrNotReadable) {
		return fmt.Errorf("%w; set metadata.backend to dir, sqlite or s3 to keep job records", err)
	}
	return err
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded job descriptors, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDeps(cmd, func(deps *bootstrap.Dependencies) error {
				ds, err := deps.Metadata.List(cmd.Context(), limit)
				if err != nil {
					return readableMetadata(err)
				}
				if useJSON(cmd, jsonOut) {
					if ds == nil {
						ds = []*job.Descriptor{}
					}
					return writeJSON(cmd, ds)
				}
				if len(ds) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(descriptorListHeaders, descriptorListRows(ds)))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one job descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDeps(cmd, func(deps *bootstrap.Dependencies) error {
				d, err := deps.Metadata.FindByID(cmd.Context(), args[0])
				if errors.Is(err, metadata.ErrNotFound) || errors.Is(err, metadata.ErrNotReadable) {
					// Spool jobs are also visible through the queue.
					store, serr := deps.Spool(cmd.Context())
					if serr != nil {
						return serr
					}
					queued, qerr := store.Get(cmd.Context(), args[0])
					if qerr == nil {
						d, err = queued, nil
					} else if !errors.Is(qerr, spool.ErrJobNotFound) {
						return qerr
					}
				}
				if err != nil {
					return readableMetadata(err)
				}
				if useJSON(cmd, jsonOut) {
					return writeJSON(cmd, d)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, descriptorRows(d)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func newJobsQueueCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List spool jobs in queue order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := make([]job.Status, 0, len(statuses))
			for _, s := range statuses {
				st := job.Status(s)
				if !st.IsValid() {
					return fmt.Errorf("unknown status %q", s)
				}
				filter = append(filter, st)
			}
			return ctx.withDeps(cmd, func(deps *bootstrap.Dependencies) error {
				store, err := deps.Spool(cmd.Context())
				if err != nil {
					return err
				}
				ds, err := store.List(cmd.Context(), filter...)
				if err != nil {
					return err
				}
				if useJSON(cmd, jsonOut) {
					if ds == nil {
						ds = []*job.Descriptor{}
					}
					return writeJSON(cmd, ds)
				}
				if len(ds) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Spool is empty")
					return nil
				}
				rows := make([][]string, 0, len(ds))
				for _, d := range ds {
					rows = append(rows, []string{d.ID, string(d.Status), d.DependsOn, d.Name, d.Error})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Status", "Depends on", "Name", "Error"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only show jobs in these statuses (IN_QUEUE, RUNNING, COMPLETED, FAILED)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func newJobsFarmStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "farm-status JOB_ID",
		Short: "Query the render farm for a job's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDeps(cmd, func(deps *bootstrap.Dependencies) error {
				client, err := deps.Farm()
				if err != nil {
					return err
				}
				status, err := client.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if useJSON(cmd, jsonOut) {
					return writeJSON(cmd, status)
				}
				rows := [][]string{{"Job ID", status.ID}, {"Status", string(status.Status)}}
				if status.Error != "" {
					rows = append(rows, []string{"Error", status.Error})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}
