// Package pipeline orchestrates sheet-index extraction for one
// document: render and text-layer per page, label-anchored extraction,
// heuristic and vision fallbacks, cross-page boilerplate detection,
// confidence gating, and persistence. Pages are processed in a
// sequential loop; boilerplate detection is the one cross-page
// dependency and runs as a second pass over first-pass results before
// any vision decision is finalized.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/planscope/sheetdex/internal/home"
	"github.com/planscope/sheetdex/internal/render"
	"github.com/planscope/sheetdex/internal/sheet"
	"github.com/planscope/sheetdex/internal/store"
	"github.com/planscope/sheetdex/internal/vision"
)

// Document is the per-job page source. *render.Document satisfies it.
type Document interface {
	PageCount() int
	TextLayer(pageNum int) ([]sheet.TextItem, sheet.Viewport, error)
	Render(ctx context.Context, pageNum int) ([]byte, error)
}

// VisionExtractor reads a title-block crop. *vision.Client satisfies it.
type VisionExtractor interface {
	Extract(ctx context.Context, crop []byte, pageNumber int, numberHint string) (*vision.Result, error)
}

// Config holds the tunable extraction thresholds for a run.
type Config struct {
	ReviewThreshold   float64
	ManualThreshold   float64
	VisionTrigger     float64
	BoilerplateCutoff int
	BoilerplateMinLen int
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		ReviewThreshold:   sheet.DefaultReviewThreshold,
		ManualThreshold:   sheet.DefaultManualThreshold,
		VisionTrigger:     0.80,
		BoilerplateCutoff: 8,
		BoilerplateMinLen: 40,
	}
}

// Runner drives sheet-index extraction jobs.
type Runner struct {
	renderer *render.Service
	vision   VisionExtractor // nil disables the vision fallback
	store    store.Store
	home     *home.Dir // nil disables render/crop artifacts
	logger   *slog.Logger
	cfg      Config
}

// New creates a pipeline runner.
func New(renderer *render.Service, vis VisionExtractor, st store.Store, hd *home.Dir, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.ReviewThreshold == 0 {
		cfg.ReviewThreshold = def.ReviewThreshold
	}
	if cfg.ManualThreshold == 0 {
		cfg.ManualThreshold = def.ManualThreshold
	}
	if cfg.VisionTrigger == 0 {
		cfg.VisionTrigger = def.VisionTrigger
	}
	if cfg.BoilerplateCutoff == 0 {
		cfg.BoilerplateCutoff = def.BoilerplateCutoff
	}
	if cfg.BoilerplateMinLen == 0 {
		cfg.BoilerplateMinLen = def.BoilerplateMinLen
	}
	return &Runner{
		renderer: renderer,
		vision:   vis,
		store:    st,
		home:     hd,
		logger:   logger,
		cfg:      cfg,
	}
}

// Summary reports a completed run.
type Summary struct {
	JobID       string `json:"job_id" yaml:"job_id"`
	Pages       int    `json:"pages" yaml:"pages"`
	FailedPages int    `json:"failed_pages" yaml:"failed_pages"`
	VisionCalls int    `json:"vision_calls" yaml:"vision_calls"`
	NeedsReview int    `json:"needs_review" yaml:"needs_review"`
	Manual      int    `json:"manual_required" yaml:"manual_required"`
}

// Run processes a PDF drawing set end to end. A document that cannot
// be opened fails the job; any single page's failure produces a
// placeholder row and the batch continues.
func (r *Runner) Run(ctx context.Context, jobID, pdfPath string) (*Summary, error) {
	doc, err := r.renderer.Open(pdfPath)
	if err != nil {
		r.failJob(ctx, jobID, pdfPath, err)
		return nil, err
	}

	if err := r.store.UpdateJob(ctx, store.Job{
		JobID:      jobID,
		SourcePath: pdfPath,
		Status:     store.JobRunning,
		PageCount:  doc.PageCount(),
	}); err != nil {
		return nil, fmt.Errorf("failed to record job start: %w", err)
	}

	summary, rows := r.process(ctx, jobID, doc)

	if err := r.store.UpsertSheets(ctx, rows); err != nil {
		r.failJob(ctx, jobID, pdfPath, err)
		return summary, fmt.Errorf("failed to persist sheet rows: %w", err)
	}

	if err := r.store.UpdateJob(ctx, store.Job{
		JobID:       jobID,
		SourcePath:  pdfPath,
		Status:      store.JobCompleted,
		PageCount:   summary.Pages,
		PagesDone:   summary.Pages,
		VisionCalls: summary.VisionCalls,
	}); err != nil {
		return summary, fmt.Errorf("failed to record job completion: %w", err)
	}

	return summary, nil
}

// process runs the three extraction passes over an open document and
// returns the rows to persist. Split from Run so tests can inject a
// synthetic document.
func (r *Runner) process(ctx context.Context, jobID string, doc Document) (*Summary, []store.SheetRow) {
	pageCount := doc.PageCount()
	states := make([]*pageState, pageCount)

	// First pass: geometric extraction and the full-page render, one
	// page at a time.
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		st := r.extractPage(doc, pageNum)
		if !st.failed {
			r.renderPage(ctx, jobID, doc, st)
		}
		states[pageNum-1] = st
	}

	// Second pass: cross-page boilerplate titles. Must complete before
	// any vision decision is finalized.
	r.flagBoilerplate(states)

	// Vision pass for flagged pages.
	visionCalls := 0
	for _, st := range states {
		if st.failed || !r.needsVision(st) {
			continue
		}
		if r.vision == nil {
			st.notes.FallbackPath = append(st.notes.FallbackPath, "vision_unavailable")
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}
		visionCalls += r.visionPage(ctx, jobID, doc, st)
	}

	// Final scoring and row assembly.
	summary := &Summary{JobID: jobID, Pages: pageCount, VisionCalls: visionCalls}
	rows := make([]store.SheetRow, 0, pageCount)
	for _, st := range states {
		row := r.finishPage(jobID, st)
		if st.failed {
			summary.FailedPages++
		}
		if row.NeedsReview {
			summary.NeedsReview++
		}
		if row.ManualRequired {
			summary.Manual++
		}
		rows = append(rows, row)
	}

	return summary, rows
}

func (r *Runner) failJob(ctx context.Context, jobID, pdfPath string, cause error) {
	if err := r.store.UpdateJob(ctx, store.Job{
		JobID:      jobID,
		SourcePath: pdfPath,
		Status:     store.JobFailed,
		Error:      cause.Error(),
	}); err != nil {
		r.logger.Error("failed to record job failure", "job_id", jobID, "error", err)
	}
}

// gate returns the confidence gate with this run's thresholds.
func (r *Runner) gate() sheet.Gate {
	return sheet.Gate{
		ReviewThreshold: r.cfg.ReviewThreshold,
		ManualThreshold: r.cfg.ManualThreshold,
	}
}
