package pipeline

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/planscope/sheetdex/internal/sheet"
	"github.com/planscope/sheetdex/internal/store"
)

// pageState carries one page through the extraction passes.
type pageState struct {
	pageNum int // 1-indexed

	failed bool

	items     []sheet.TextItem
	vp        sheet.Viewport
	pageImage []byte // full-page PNG from the first-pass render

	labels  []sheet.LabelHit
	cluster bool

	number      *sheet.AnchoredValue
	numberValue string
	numberCheck sheet.NumberCheck

	titleValue string
	titleCheck sheet.TitleCheck

	source sheet.Source

	boilerplate bool
	visionCap   float64 // 0 means no cap

	renderPath string
	cropPath   string

	notes PageNotes
}

// extractPage is the first, geometric pass: text layer, label
// detection, anchored extraction, heuristic fallback. Errors never
// escape; a failed page becomes a placeholder state.
func (r *Runner) extractPage(doc Document, pageNum int) *pageState {
	start := time.Now()
	st := &pageState{
		pageNum: pageNum,
		source:  sheet.SourceUnknown,
		notes:   PageNotes{Page: pageNum},
	}
	defer func() {
		st.notes.DurationMS = time.Since(start).Milliseconds()
	}()

	items, vp, err := doc.TextLayer(pageNum)
	if err != nil {
		r.logger.Warn("page text layer failed", "page", pageNum, "error", err)
		st.failed = true
		st.notes.Error = err.Error()
		return st
	}
	st.items = items
	st.vp = vp

	st.labels = sheet.DetectLabels(items, vp)
	st.cluster = sheet.HasCoherentCluster(st.labels)
	st.notes.LabelHits = st.labels
	st.notes.LabelCluster = st.cluster

	number, numAttempts := sheet.AnchoredNumber(items, vp, st.labels)
	title, titleAttempts := sheet.AnchoredTitle(items, vp, st.labels)
	st.notes.AnchoredAttempts = append(numAttempts, titleAttempts...)

	if number != nil {
		st.number = number
		st.numberValue = number.Value
		st.numberCheck = sheet.ValidateSheetNumber(number.Value)
	}
	if title != nil {
		st.titleValue = title.Value
		st.titleCheck = sheet.ValidateSheetTitle(title.Value)
	}
	if number != nil || title != nil {
		// Either field arriving from a labeled region makes this a
		// vector-anchored page.
		st.source = sheet.SourceVectorAnchored
		st.notes.FallbackPath = append(st.notes.FallbackPath, "anchored")
	}

	if st.numberValue == "" || st.titleValue == "" {
		heur := sheet.Heuristic(items, vp)
		st.notes.FallbackPath = append(st.notes.FallbackPath, "heuristic")
		if st.numberValue == "" && heur.Number != "" {
			st.numberValue = heur.Number
			st.numberCheck = sheet.ValidateSheetNumber(heur.Number)
			st.source = sheet.SourceVectorHeuristic
		}
		if st.titleValue == "" && heur.Title != "" {
			st.titleValue = heur.Title
			st.titleCheck = heur.TitleCheck
			if st.source == sheet.SourceUnknown {
				st.source = sheet.SourceVectorHeuristic
			}
		}
	}

	return st
}

// renderPage rasterizes the page during the first pass so every
// surviving row carries a full-page render asset and the vision pass
// can reuse the image. A failure here is not fatal; the vision pass
// retries once if the page ends up needing it.
func (r *Runner) renderPage(ctx context.Context, jobID string, doc Document, st *pageState) {
	data, err := doc.Render(ctx, st.pageNum)
	if err != nil {
		r.logger.Warn("page render failed", "page", st.pageNum, "error", err)
		return
	}
	st.pageImage = data
	st.renderPath = r.saveArtifact(jobID, st.pageNum, "render", data)
}

// signals assembles the gate inputs for a page's current state.
func (st *pageState) signals() sheet.Signals {
	sig := sheet.Signals{
		Source:              st.source,
		FoundNumber:         st.numberValue != "",
		FoundTitle:          st.titleValue != "",
		LabelCluster:        st.cluster,
		NumberTopTier:       st.numberCheck.Valid && st.numberCheck.Priority == 3,
		TitleClean:          st.titleCheck.Clean(),
		TruncationSuspected: st.titleCheck.TruncationSuspected,
		ConfidenceCap:       st.visionCap,
	}
	if st.number != nil && st.source == sheet.SourceVectorAnchored {
		sig.AnchoredBonus = st.number.ConfidenceBonus
	}
	return sig
}

// needsVision decides whether a page's geometric result is good enough
// or the vision fallback should run.
func (r *Runner) needsVision(st *pageState) bool {
	if st.numberValue == "" {
		st.addVisionReason("no_sheet_number")
		return true
	}
	if st.titleValue != "" && !st.titleCheck.Valid {
		st.addVisionReason("title_failed_validation")
		return true
	}
	if st.boilerplate {
		st.addVisionReason("boilerplate_title")
		return true
	}
	provisional := r.gate().Score(st.signals())
	if provisional.Confidence < r.cfg.VisionTrigger {
		st.addVisionReason("below_vision_trigger")
		return true
	}
	return false
}

func (st *pageState) addVisionReason(reason string) {
	st.notes.FallbackPath = append(st.notes.FallbackPath, "vision:"+reason)
}

// visionPage renders, crops, and re-extracts one page through the
// vision model. Returns the number of vision calls made (0 or 1).
// A vision result replaces the geometric one only when it validates;
// anything less degrades to the geometric result with a lowered
// confidence cap. No retries: one call per page.
func (r *Runner) visionPage(ctx context.Context, jobID string, doc Document, st *pageState) int {
	pageImage := st.pageImage
	if pageImage == nil {
		var err error
		pageImage, err = doc.Render(ctx, st.pageNum)
		if err != nil {
			r.logger.Warn("page render failed", "page", st.pageNum, "error", err)
			st.degradeWithoutVision("render_failed")
			return 0
		}
		st.pageImage = pageImage
		st.renderPath = r.saveArtifact(jobID, st.pageNum, "render", pageImage)
	}

	crop, err := r.cropTitleBlock(pageImage, st)
	if err != nil {
		r.logger.Warn("title block crop failed", "page", st.pageNum, "error", err)
		st.degradeWithoutVision("crop_failed")
		return 0
	}
	st.cropPath = r.saveArtifact(jobID, st.pageNum, "crop", crop)

	result, err := r.vision.Extract(ctx, crop, st.pageNum, st.numberValue)
	st.notes.VisionCalls++
	if err != nil {
		r.logger.Warn("vision extraction failed", "page", st.pageNum, "error", err)
		st.visionCap = visionFailureCap
		st.notes.VisionOutcome = "call_failed"
		return 1
	}

	numCheck := sheet.ValidateSheetNumber(strings.TrimSpace(result.SheetNumber))
	titleCheck := sheet.ValidateSheetTitle(strings.TrimSpace(result.SheetTitle))

	switch {
	case numCheck.Valid && titleCheck.Valid:
		// Both fields validate: accept the vision result wholesale.
		st.numberValue = numCheck.Value
		st.numberCheck = numCheck
		st.titleValue = titleCheck.Value
		st.titleCheck = titleCheck
		st.number = nil
		st.source = sheet.SourceVisionCrop
		st.visionCap = visionSuccessCap
		st.notes.VisionOutcome = "accepted"
	case numCheck.Valid && st.numberValue == "" && st.titleValue == "":
		// Partial acceptance only when geometry found nothing at all.
		st.numberValue = numCheck.Value
		st.numberCheck = numCheck
		st.source = sheet.SourceVisionCrop
		st.visionCap = visionSuccessCap
		st.notes.VisionOutcome = "accepted_number_only"
	default:
		st.visionCap = visionFailureCap
		st.notes.VisionOutcome = "rejected"
	}
	return 1
}

// degradeWithoutVision records that the vision fallback could not run.
// The geometric result survives uncorroborated; a page with no
// geometric result at all becomes a crop failure.
func (st *pageState) degradeWithoutVision(outcome string) {
	st.notes.VisionOutcome = outcome
	if st.numberValue == "" && st.titleValue == "" {
		st.source = sheet.SourceFailCrop
		return
	}
	st.visionCap = visionFailureCap
}

// Vision confidence caps: a usable vision result can never reach full
// confidence, and an unusable one forces the gate toward review.
const (
	visionSuccessCap = 0.95
	visionFailureCap = 0.40
)

// finishPage scores a page and assembles its persisted row. Failed
// pages become placeholder rows so the job always yields exactly one
// row per page.
func (r *Runner) finishPage(jobID string, st *pageState) store.SheetRow {
	row := store.SheetRow{
		JobID:       jobID,
		SourceIndex: st.pageNum - 1,
	}

	if st.failed {
		row.Confidence = 0
		row.ManualRequired = true
		row.ExtractionSource = sheet.SourceUnknown.Persisted()
		row.ExtractionNotes = st.notes.Encode()
		return row
	}

	st.notes.BoilerplateTitle = st.boilerplate

	result := r.gate().Score(st.signals())
	st.notes.Breakdown = result.Breakdown

	row.SheetNumber = st.numberValue
	row.SheetTitle = st.titleValue
	row.Discipline = sheet.InferDiscipline(st.numberValue, st.titleValue)
	row.SheetKind = string(sheet.InferKind(st.titleValue))
	row.Confidence = result.Confidence
	row.NeedsReview = result.FlagForReview
	row.ManualRequired = result.ManualFlag
	row.ExtractionSource = st.source.Persisted()
	row.ExtractionNotes = st.notes.Encode()
	row.RenderPath = st.renderPath
	row.CropPath = st.cropPath
	return row
}

// saveArtifact writes a render or crop PNG under the home directory
// and returns its path, "" when nothing was written. Best effort:
// artifacts aid review but never fail a page.
func (r *Runner) saveArtifact(jobID string, pageNum int, kind string, data []byte) string {
	if r.home == nil {
		return ""
	}
	var path string
	switch kind {
	case "render":
		if err := r.home.EnsureRendersDir(jobID); err != nil {
			return ""
		}
		path = r.home.RenderPath(jobID, pageNum)
	case "crop":
		if err := r.home.EnsureCropsDir(jobID); err != nil {
			return ""
		}
		path = r.home.CropPath(jobID, pageNum)
	default:
		return ""
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.logger.Warn("failed to save artifact", "path", path, "error", err)
		return ""
	}
	return path
}
