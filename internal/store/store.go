// Package store is the typed persistence port for sheet-index rows
// and jobs. Callers work with concrete row structs; the DefraDB
// implementation handles collection mapping, so no caller builds
// GraphQL or casts untyped maps.
package store

import (
	"context"
	"time"
)

// JobStatus tracks a document-processing job's lifecycle.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is one document-processing invocation.
type Job struct {
	JobID       string
	SourcePath  string
	Status      JobStatus
	PageCount   int
	PagesDone   int
	VisionCalls int
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SheetRow is one persisted sheet-index row. A job produces exactly
// one row per page, keyed by (JobID, SourceIndex); SourceIndex is
// 0-based page position in the source document.
type SheetRow struct {
	JobID            string
	SourceIndex      int
	SheetNumber      string
	SheetTitle       string
	Discipline       string
	SheetKind        string
	Confidence       float64
	NeedsReview      bool
	ManualRequired   bool
	ExtractionSource string
	ExtractionNotes  string
	RenderPath       string
	CropPath         string
	UpdatedAt        time.Time
}

// Store persists jobs and sheet-index rows.
type Store interface {
	CreateJob(ctx context.Context, job Job) error
	UpdateJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, jobID string) (*Job, error)

	// UpsertSheet writes one row idempotently on (job_id, source_index).
	UpsertSheet(ctx context.Context, row SheetRow) error

	// UpsertSheets writes rows in chunks. Partial failure returns the
	// first error after attempting every chunk.
	UpsertSheets(ctx context.Context, rows []SheetRow) error

	// SheetsForJob returns a job's rows ordered by source_index.
	SheetsForJob(ctx context.Context, jobID string) ([]SheetRow, error)
}
