package main

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/planscope/sheetdex/internal/api"
	"github.com/planscope/sheetdex/internal/pipeline"
	"github.com/planscope/sheetdex/internal/schema"
	"github.com/planscope/sheetdex/internal/store"
	"github.com/planscope/sheetdex/internal/svcctx"
)

var indexCmd = &cobra.Command{
	Use:   "index <drawing-set.pdf>",
	Short: "Extract the sheet index from a drawing set",
	Long: `Extract the sheet index from a construction drawing set PDF.

Processes every page: geometric extraction from the vector text layer,
heuristic and vision fallbacks where needed, confidence scoring, and
routing flags. Results are upserted into DefraDB under a new job ID.

Requires a running DefraDB (sheetdex defra start).

Examples:
  sheetdex index drawings.pdf
  sheetdex index drawings.pdf -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		cfg, err := attachServices(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		logger := svcctx.LoggerFrom(ctx)

		client := svcctx.DefraClientFrom(ctx)
		if err := client.HealthCheck(ctx); err != nil {
			return fmt.Errorf("DefraDB is not reachable (run 'sheetdex defra start'): %w", err)
		}
		if err := schema.Initialize(ctx, client, logger); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		st := svcctx.StoreFrom(ctx)
		jobID := uuid.NewString()
		if err := st.CreateJob(ctx, store.Job{
			JobID:      jobID,
			SourcePath: pdfPath,
			Status:     store.JobPending,
		}); err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}

		// A nil *vision.Client must not become a non-nil interface.
		var vis pipeline.VisionExtractor
		if vc := svcctx.VisionFrom(ctx); vc != nil {
			vis = vc
		}

		runner := pipeline.New(svcctx.RendererFrom(ctx), vis, st, svcctx.HomeFrom(ctx), pipeline.Config{
			ReviewThreshold:   cfg.Extract.ReviewThreshold,
			ManualThreshold:   cfg.Extract.ManualThreshold,
			VisionTrigger:     cfg.Extract.VisionTrigger,
			BoilerplateCutoff: cfg.Extract.BoilerplateCutoff,
			BoilerplateMinLen: cfg.Extract.BoilerplateMinLen,
		}, logger)

		summary, err := runner.Run(ctx, jobID, pdfPath)
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}

		return api.Output(summary)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
