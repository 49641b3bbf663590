package pipeline

import (
	"encoding/json"

	"github.com/planscope/sheetdex/internal/sheet"
)

// PageNotes is the evidence trail persisted with every sheet row.
// Review tooling depends on it being complete: which labels fired,
// every anchored region attempted, which fallbacks ran, and how the
// final confidence was assembled.
type PageNotes struct {
	Page             int                   `json:"page"`
	LabelHits        []sheet.LabelHit      `json:"label_hits,omitempty"`
	LabelCluster     bool                  `json:"label_cluster,omitempty"`
	AnchoredAttempts []sheet.RegionAttempt `json:"anchored_attempts,omitempty"`
	FallbackPath     []string              `json:"fallback_path,omitempty"`
	BoilerplateTitle bool                  `json:"boilerplate_title,omitempty"`
	VisionCalls      int                   `json:"vision_calls,omitempty"`
	VisionOutcome    string                `json:"vision_outcome,omitempty"`
	Breakdown        []string              `json:"confidence_breakdown,omitempty"`
	Error            string                `json:"error,omitempty"`
	DurationMS       int64                 `json:"duration_ms"`
}

// Encode marshals the notes for the extraction_notes column. Notes are
// part of the row contract, so an encode failure degrades to an error
// marker rather than an empty field.
func (n PageNotes) Encode() string {
	data, err := json.Marshal(n)
	if err != nil {
		return `{"error":"failed to encode extraction notes"}`
	}
	return string(data)
}
