package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/planscope/sheetdex/internal/defra"
)

const (
	jobCollection   = "Job"
	sheetCollection = "SheetIndex"

	// upsertChunkSize bounds how many rows one batched mutation
	// carries; failures are isolated to a batch rather than the whole
	// job.
	upsertChunkSize = 50
)

// ErrJobNotFound is returned when a job ID has no document.
var ErrJobNotFound = errors.New("job not found")

// DefraStore implements Store on a DefraDB node.
type DefraStore struct {
	client *defra.Client
	logger *slog.Logger
}

// NewDefraStore creates a DefraDB-backed store.
func NewDefraStore(client *defra.Client, logger *slog.Logger) *DefraStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefraStore{client: client, logger: logger}
}

// CreateJob writes a new job document.
func (s *DefraStore) CreateJob(ctx context.Context, job Job) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	input := map[string]any{
		"job_id":       job.JobID,
		"source_path":  job.SourcePath,
		"status":       string(job.Status),
		"page_count":   job.PageCount,
		"pages_done":   job.PagesDone,
		"vision_calls": job.VisionCalls,
		"error":        job.Error,
		"created_at":   now,
		"updated_at":   now,
	}
	if _, err := s.client.Create(ctx, jobCollection, input); err != nil {
		return fmt.Errorf("failed to create job %s: %w", job.JobID, err)
	}
	return nil
}

// UpdateJob upserts the job's mutable fields keyed by job_id.
func (s *DefraStore) UpdateJob(ctx context.Context, job Job) error {
	now := time.Now().UTC().Format(time.RFC3339)
	update := map[string]any{
		"status":       string(job.Status),
		"page_count":   job.PageCount,
		"pages_done":   job.PagesDone,
		"vision_calls": job.VisionCalls,
		"error":        job.Error,
		"updated_at":   now,
	}
	create := map[string]any{
		"job_id":      job.JobID,
		"source_path": job.SourcePath,
		"created_at":  now,
	}
	for k, v := range update {
		create[k] = v
	}
	filter := map[string]any{"job_id": map[string]any{"_eq": job.JobID}}

	if _, err := s.client.Upsert(ctx, jobCollection, filter, create, update); err != nil {
		return fmt.Errorf("failed to update job %s: %w", job.JobID, err)
	}
	return nil
}

// GetJob fetches a job by ID.
func (s *DefraStore) GetJob(ctx context.Context, jobID string) (*Job, error) {
	query := fmt.Sprintf(`query {
		%s(filter: {job_id: {_eq: %q}}) {
			job_id source_path status page_count pages_done vision_calls error created_at updated_at
		}
	}`, jobCollection, jobID)

	resp, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("job query error: %s", errMsg)
	}

	docs, _ := resp.Data[jobCollection].([]any)
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	doc, ok := docs[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected job document format")
	}

	job := &Job{
		JobID:       str(doc["job_id"]),
		SourcePath:  str(doc["source_path"]),
		Status:      JobStatus(str(doc["status"])),
		PageCount:   num(doc["page_count"]),
		PagesDone:   num(doc["pages_done"]),
		VisionCalls: num(doc["vision_calls"]),
		Error:       str(doc["error"]),
	}
	job.CreatedAt = parseTime(str(doc["created_at"]))
	job.UpdatedAt = parseTime(str(doc["updated_at"]))
	return job, nil
}

// sheetUpsertOp builds the (filter, create, update) triple that writes
// one row idempotently on (job_id, source_index).
func sheetUpsertOp(row SheetRow) (defra.UpsertOp, error) {
	if row.JobID == "" {
		return defra.UpsertOp{}, fmt.Errorf("sheet row requires a job ID")
	}
	if row.SourceIndex < 0 {
		return defra.UpsertOp{}, fmt.Errorf("source index must be >= 0, got %d", row.SourceIndex)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	fields := map[string]any{
		"sheet_number":      row.SheetNumber,
		"sheet_title":       row.SheetTitle,
		"discipline":        row.Discipline,
		"sheet_kind":        row.SheetKind,
		"confidence":        row.Confidence,
		"needs_review":      row.NeedsReview,
		"manual_required":   row.ManualRequired,
		"extraction_source": row.ExtractionSource,
		"extraction_notes":  row.ExtractionNotes,
		"render_path":       row.RenderPath,
		"crop_path":         row.CropPath,
		"updated_at":        now,
	}
	create := map[string]any{
		"job_id":       row.JobID,
		"source_index": row.SourceIndex,
	}
	for k, v := range fields {
		create[k] = v
	}
	filter := map[string]any{
		"job_id":       map[string]any{"_eq": row.JobID},
		"source_index": map[string]any{"_eq": row.SourceIndex},
	}
	return defra.UpsertOp{Filter: filter, Create: create, Update: fields}, nil
}

// UpsertSheet writes one row idempotently on (job_id, source_index).
func (s *DefraStore) UpsertSheet(ctx context.Context, row SheetRow) error {
	op, err := sheetUpsertOp(row)
	if err != nil {
		return err
	}
	if _, err := s.client.Upsert(ctx, sheetCollection, op.Filter, op.Create, op.Update); err != nil {
		return fmt.Errorf("failed to upsert sheet %s/%d: %w", row.JobID, row.SourceIndex, err)
	}
	return nil
}

// UpsertSheets writes rows in batches of upsertChunkSize, one aliased
// mutation per batch. Every batch is attempted; the first error is
// returned after the loop so one bad batch does not strand the rest of
// the job's rows.
func (s *DefraStore) UpsertSheets(ctx context.Context, rows []SheetRow) error {
	var firstErr error
	for start := 0; start < len(rows); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(rows) {
			end = len(rows)
		}

		ops := make([]defra.UpsertOp, 0, end-start)
		for _, row := range rows[start:end] {
			op, err := sheetUpsertOp(row)
			if err != nil {
				s.logger.Error("sheet row rejected",
					"job_id", row.JobID,
					"source_index", row.SourceIndex,
					"error", err,
				)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			ops = append(ops, op)
		}

		if err := s.client.UpsertMany(ctx, sheetCollection, ops); err != nil {
			s.logger.Error("sheet batch upsert failed", "rows", len(ops), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.logger.Debug("flushed sheet batch", "rows", len(ops))
	}
	return firstErr
}

// SheetsForJob returns a job's rows ordered by source_index.
func (s *DefraStore) SheetsForJob(ctx context.Context, jobID string) ([]SheetRow, error) {
	query := fmt.Sprintf(`query {
		%s(filter: {job_id: {_eq: %q}}) {
			job_id source_index sheet_number sheet_title discipline sheet_kind
			confidence needs_review manual_required extraction_source extraction_notes
			render_path crop_path updated_at
		}
	}`, sheetCollection, jobID)

	resp, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("sheet query error: %s", errMsg)
	}

	docs, _ := resp.Data[sheetCollection].([]any)
	rows := make([]SheetRow, 0, len(docs))
	for _, d := range docs {
		doc, ok := d.(map[string]any)
		if !ok {
			continue
		}
		rows = append(rows, SheetRow{
			JobID:            str(doc["job_id"]),
			SourceIndex:      num(doc["source_index"]),
			SheetNumber:      str(doc["sheet_number"]),
			SheetTitle:       str(doc["sheet_title"]),
			Discipline:       str(doc["discipline"]),
			SheetKind:        str(doc["sheet_kind"]),
			Confidence:       flt(doc["confidence"]),
			NeedsReview:      boolean(doc["needs_review"]),
			ManualRequired:   boolean(doc["manual_required"]),
			ExtractionSource: str(doc["extraction_source"]),
			ExtractionNotes:  str(doc["extraction_notes"]),
			RenderPath:       str(doc["render_path"]),
			CropPath:         str(doc["crop_path"]),
			UpdatedAt:        parseTime(str(doc["updated_at"])),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].SourceIndex < rows[j].SourceIndex
	})
	return rows, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// num handles DefraDB integers, which arrive as JSON float64.
func num(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func flt(v any) float64 {
	f, _ := v.(float64)
	return f
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
