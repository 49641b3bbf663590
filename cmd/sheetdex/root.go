package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/planscope/sheetdex/internal/api"
	"github.com/planscope/sheetdex/internal/config"
	"github.com/planscope/sheetdex/internal/defra"
	"github.com/planscope/sheetdex/internal/home"
	"github.com/planscope/sheetdex/internal/render"
	"github.com/planscope/sheetdex/internal/store"
	"github.com/planscope/sheetdex/internal/svcctx"
	"github.com/planscope/sheetdex/internal/vision"
	"github.com/planscope/sheetdex/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "sheetdex",
	Short: "Sheet-index extraction for construction drawing sets",
	Long: `Sheetdex builds a sheet index from a construction drawing set PDF.

For each page it extracts the sheet number, title, discipline, and
drawing kind from the title block, using the vector text layer first
and a vision model fallback for pages where geometric extraction is
insufficient. Every sheet gets a confidence score and a routing flag
(auto-accept, review, or manual) plus a full evidence trail.

Results are stored in DefraDB, keyed by job and page so re-runs are
idempotent.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.sheetdex/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "sheetdex home directory (default: ~/.sheetdex)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// getHome returns the home directory manager, creating the directory
// if needed.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

func loadConfig() (*config.Manager, error) {
	return config.NewManager(cfgFile)
}

// attachServices builds the service set and attaches it to the
// command's context, so subcommands and helpers extract what they need
// via svcctx rather than threading every dependency by hand.
func attachServices(cmd *cobra.Command) (*config.Config, error) {
	svcs, cfg, err := buildServices()
	if err != nil {
		return nil, err
	}
	cmd.SetContext(svcctx.WithServices(cmd.Context(), svcs))
	return cfg, nil
}

// buildServices wires up everything a pipeline command needs. The
// vision client is nil when vision is disabled or no API key resolves;
// the pipeline degrades gracefully without it.
func buildServices() (*svcctx.Services, *config.Config, error) {
	cfgMgr, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cfg := cfgMgr.Get()

	logger := newLogger()

	h, err := getHome()
	if err != nil {
		return nil, nil, err
	}

	client := defra.NewClient(fmt.Sprintf("http://localhost:%s", cfg.Defra.Port))

	var vis *vision.Client
	if key := cfg.VisionAPIKey(); key != "" {
		vis, err = vision.New(vision.Config{
			APIKey:  key,
			Model:   cfg.Vision.Model,
			BaseURL: cfg.Vision.BaseURL,
			Timeout: time.Duration(cfg.Vision.TimeoutSeconds) * time.Second,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create vision client: %w", err)
		}
	} else {
		logger.Warn("vision fallback disabled, no API key configured")
	}

	return &svcctx.Services{
		DefraClient: client,
		Store:       store.NewDefraStore(client, logger),
		Renderer:    render.New(render.Config{DPI: cfg.Render.DPI, Logger: logger}),
		Vision:      vis,
		Logger:      logger,
		Home:        h,
	}, cfg, nil
}
