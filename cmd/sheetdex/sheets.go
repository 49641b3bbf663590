package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planscope/sheetdex/internal/api"
	"github.com/planscope/sheetdex/internal/svcctx"
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets <job-id>",
	Short: "Show the extracted sheet index for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := attachServices(cmd); err != nil {
			return err
		}
		ctx := cmd.Context()

		if err := svcctx.DefraClientFrom(ctx).HealthCheck(ctx); err != nil {
			return fmt.Errorf("DefraDB is not reachable (run 'sheetdex defra start'): %w", err)
		}

		rows, err := svcctx.StoreFrom(ctx).SheetsForJob(ctx, args[0])
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no sheets found for job %s", args[0])
		}

		return api.Output(rows)
	},
}

var jobCmd = &cobra.Command{
	Use:   "job <job-id>",
	Short: "Show a job's status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := attachServices(cmd); err != nil {
			return err
		}
		ctx := cmd.Context()

		if err := svcctx.DefraClientFrom(ctx).HealthCheck(ctx); err != nil {
			return fmt.Errorf("DefraDB is not reachable (run 'sheetdex defra start'): %w", err)
		}

		job, err := svcctx.StoreFrom(ctx).GetJob(ctx, args[0])
		if err != nil {
			return err
		}

		return api.Output(job)
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
	rootCmd.AddCommand(jobCmd)
}
