package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/planscope/sheetdex/internal/home"
	"github.com/planscope/sheetdex/internal/render"
	"github.com/planscope/sheetdex/internal/sheet"
	"github.com/planscope/sheetdex/internal/store"
	"github.com/planscope/sheetdex/internal/vision"
)

// Synthetic page geometry: a 1275x1650 pixel page with scale 1 so PDF
// points and render pixels coincide and fixture coordinates stay legible.
const (
	testPageW = 1275.0
	testPageH = 1650.0
)

func testViewport() sheet.Viewport {
	return sheet.Viewport{Width: testPageW, Height: testPageH, Scale: 1}
}

// anchoredItems lays out a conventional title block in the bottom-right
// corner: labeled sheet number and labeled title, values to the right
// of their labels.
func anchoredItems(number, title string) []sheet.TextItem {
	return []sheet.TextItem{
		{Text: "SHEET NO.", X: 1000, Y: 150, Width: 80, Height: 12},
		{Text: number, X: 1120, Y: 140, Width: 40, Height: 12},
		{Text: "SHEET TITLE", X: 1000, Y: 220, Width: 90, Height: 12},
		{Text: title, X: 1120, Y: 210, Width: 300, Height: 12},
	}
}

// heuristicItems lays out an unlabeled title block: values in the
// bottom-right quadrant with no label lexicon hits anywhere.
func heuristicItems(number, title string) []sheet.TextItem {
	items := []sheet.TextItem{
		{Text: number, X: 1150, Y: 200, Width: 40, Height: 12},
	}
	if title != "" {
		items = append(items, sheet.TextItem{Text: title, X: 1050, Y: 400, Width: 100, Height: 12})
	}
	return items
}

type fakePage struct {
	items     []sheet.TextItem
	textErr   error
	renderErr error
}

type fakeDoc struct {
	pages []fakePage
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) TextLayer(pageNum int) ([]sheet.TextItem, sheet.Viewport, error) {
	p := d.pages[pageNum-1]
	if p.textErr != nil {
		return nil, sheet.Viewport{}, p.textErr
	}
	return p.items, testViewport(), nil
}

func (d *fakeDoc) Render(_ context.Context, pageNum int) ([]byte, error) {
	p := d.pages[pageNum-1]
	if p.renderErr != nil {
		return nil, p.renderErr
	}
	return testPNG(), nil
}

func testPNG() []byte {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2000, 1600))
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

type fakeVision struct {
	result *vision.Result
	err    error
	calls  int
	hints  []string
}

func (f *fakeVision) Extract(_ context.Context, _ []byte, _ int, numberHint string) (*vision.Result, error) {
	f.calls++
	f.hints = append(f.hints, numberHint)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type memStore struct {
	jobs map[string]store.Job
	rows map[string]store.SheetRow
}

func newMemStore() *memStore {
	return &memStore{
		jobs: make(map[string]store.Job),
		rows: make(map[string]store.SheetRow),
	}
}

func (m *memStore) CreateJob(_ context.Context, job store.Job) error {
	m.jobs[job.JobID] = job
	return nil
}

func (m *memStore) UpdateJob(_ context.Context, job store.Job) error {
	m.jobs[job.JobID] = job
	return nil
}

func (m *memStore) GetJob(_ context.Context, jobID string) (*store.Job, error) {
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return &job, nil
}

func (m *memStore) UpsertSheet(_ context.Context, row store.SheetRow) error {
	m.rows[fmt.Sprintf("%s/%d", row.JobID, row.SourceIndex)] = row
	return nil
}

func (m *memStore) UpsertSheets(ctx context.Context, rows []store.SheetRow) error {
	for _, row := range rows {
		if err := m.UpsertSheet(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) SheetsForJob(_ context.Context, jobID string) ([]store.SheetRow, error) {
	var out []store.SheetRow
	for _, row := range m.rows {
		if row.JobID == jobID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceIndex < out[j].SourceIndex })
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(vis VisionExtractor, st store.Store) *Runner {
	return New(nil, vis, st, nil, DefaultConfig(), testLogger())
}

func decodeNotes(t *testing.T, row store.SheetRow) PageNotes {
	t.Helper()
	var notes PageNotes
	if err := json.Unmarshal([]byte(row.ExtractionNotes), &notes); err != nil {
		t.Fatalf("extraction notes are not valid JSON: %v\n%s", err, row.ExtractionNotes)
	}
	return notes
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestProcessAnchoredPage(t *testing.T) {
	fv := &fakeVision{}
	r := newTestRunner(fv, newMemStore())
	doc := &fakeDoc{pages: []fakePage{{items: anchoredItems("A101", "FLOOR PLAN")}}}

	summary, rows := r.process(context.Background(), "job-1", doc)

	if summary.Pages != 1 || summary.VisionCalls != 0 || summary.FailedPages != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if fv.calls != 0 {
		t.Fatalf("vision called %d times for a confident anchored page", fv.calls)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.SourceIndex != 0 {
		t.Errorf("source index = %d, want 0", row.SourceIndex)
	}
	if row.SheetNumber != "A101" || row.SheetTitle != "FLOOR PLAN" {
		t.Errorf("got %q / %q", row.SheetNumber, row.SheetTitle)
	}
	if row.Discipline != "Architectural" {
		t.Errorf("discipline = %q", row.Discipline)
	}
	if row.SheetKind != "plan" {
		t.Errorf("sheet kind = %q", row.SheetKind)
	}
	if row.ExtractionSource != "vector_text" {
		t.Errorf("extraction source = %q", row.ExtractionSource)
	}
	if !closeTo(row.Confidence, 1.0) {
		t.Errorf("confidence = %v, want 1.0", row.Confidence)
	}
	if row.NeedsReview || row.ManualRequired {
		t.Errorf("confident page flagged: review=%v manual=%v", row.NeedsReview, row.ManualRequired)
	}

	notes := decodeNotes(t, row)
	if len(notes.LabelHits) != 2 {
		t.Errorf("label hits = %d, want 2", len(notes.LabelHits))
	}
	if !notes.LabelCluster {
		t.Error("expected coherent label cluster")
	}
	if len(notes.AnchoredAttempts) == 0 {
		t.Error("expected anchored region attempts in notes")
	}
	if len(notes.Breakdown) == 0 {
		t.Error("expected confidence breakdown in notes")
	}
}

func TestProcessHeuristicFallback(t *testing.T) {
	fv := &fakeVision{}
	r := newTestRunner(fv, newMemStore())
	doc := &fakeDoc{pages: []fakePage{{items: heuristicItems("A201", "ROOF PLAN")}}}

	summary, rows := r.process(context.Background(), "job-1", doc)

	if fv.calls != 0 {
		t.Fatalf("vision called %d times, heuristic result was above trigger", fv.calls)
	}
	if summary.VisionCalls != 0 {
		t.Fatalf("summary vision calls = %d", summary.VisionCalls)
	}

	row := rows[0]
	if row.SheetNumber != "A201" || row.SheetTitle != "ROOF PLAN" {
		t.Fatalf("got %q / %q", row.SheetNumber, row.SheetTitle)
	}
	if row.ExtractionSource != "vector_text" {
		t.Errorf("extraction source = %q", row.ExtractionSource)
	}
	if !closeTo(row.Confidence, 0.85) {
		t.Errorf("confidence = %v, want 0.85", row.Confidence)
	}
	if row.NeedsReview {
		t.Error("confidence at the review threshold must not flag review")
	}

	notes := decodeNotes(t, row)
	found := false
	for _, step := range notes.FallbackPath {
		if step == "heuristic" {
			found = true
		}
	}
	if !found {
		t.Errorf("fallback path %v does not record heuristic pass", notes.FallbackPath)
	}
}

// titleOnlyItems lays out a title block with a labeled title but no
// sheet number anywhere on the page.
func titleOnlyItems(title string) []sheet.TextItem {
	return []sheet.TextItem{
		{Text: "SHEET TITLE", X: 1000, Y: 220, Width: 90, Height: 12},
		{Text: title, X: 1120, Y: 210, Width: 300, Height: 12},
	}
}

func TestProcessAnchoredTitleOnly(t *testing.T) {
	r := newTestRunner(nil, newMemStore())
	doc := &fakeDoc{pages: []fakePage{{items: titleOnlyItems("ROOF FRAMING PLAN")}}}

	_, rows := r.process(context.Background(), "job-1", doc)

	row := rows[0]
	if row.SheetTitle != "ROOF FRAMING PLAN" || row.SheetNumber != "" {
		t.Fatalf("got %q / %q", row.SheetNumber, row.SheetTitle)
	}
	if row.ExtractionSource != "vector_text" {
		t.Errorf("extraction source = %q, want vector_text for an anchored title", row.ExtractionSource)
	}
	// Anchored base 0.95, clean title +0.02, missing number -0.10.
	if !closeTo(row.Confidence, 0.87) {
		t.Errorf("confidence = %v, want 0.87", row.Confidence)
	}
	if row.ManualRequired {
		t.Error("vector-extracted title must not require manual handling")
	}
}

func TestProcessVisionAccepted(t *testing.T) {
	fv := &fakeVision{result: &vision.Result{SheetNumber: "A301", SheetTitle: "ROOF FRAMING PLAN"}}
	r := newTestRunner(fv, newMemStore())
	doc := &fakeDoc{pages: []fakePage{{}}} // blank page, geometry finds nothing

	summary, rows := r.process(context.Background(), "job-1", doc)

	if fv.calls != 1 || summary.VisionCalls != 1 {
		t.Fatalf("vision calls = %d (summary %d), want 1", fv.calls, summary.VisionCalls)
	}
	if fv.hints[0] != "" {
		t.Errorf("number hint = %q, want empty when geometry found nothing", fv.hints[0])
	}

	row := rows[0]
	if row.SheetNumber != "A301" || row.SheetTitle != "ROOF FRAMING PLAN" {
		t.Fatalf("got %q / %q", row.SheetNumber, row.SheetTitle)
	}
	if row.ExtractionSource != "vision_titleblock" {
		t.Errorf("extraction source = %q", row.ExtractionSource)
	}
	if !closeTo(row.Confidence, 0.75) {
		t.Errorf("confidence = %v, want 0.75", row.Confidence)
	}
	if !row.NeedsReview || row.ManualRequired {
		t.Errorf("vision result must route to review: review=%v manual=%v", row.NeedsReview, row.ManualRequired)
	}

	notes := decodeNotes(t, row)
	if notes.VisionOutcome != "accepted" {
		t.Errorf("vision outcome = %q", notes.VisionOutcome)
	}
	if notes.VisionCalls != 1 {
		t.Errorf("notes vision calls = %d", notes.VisionCalls)
	}
}

func TestProcessVisionPartialAccept(t *testing.T) {
	fv := &fakeVision{result: &vision.Result{SheetNumber: "S101", SheetTitle: "--"}}
	r := newTestRunner(fv, newMemStore())
	doc := &fakeDoc{pages: []fakePage{{}}}

	_, rows := r.process(context.Background(), "job-1", doc)

	row := rows[0]
	if row.SheetNumber != "S101" {
		t.Fatalf("sheet number = %q, want S101", row.SheetNumber)
	}
	if row.SheetTitle != "" {
		t.Errorf("invalid vision title leaked through: %q", row.SheetTitle)
	}
	if row.ExtractionSource != "vision_titleblock" {
		t.Errorf("extraction source = %q", row.ExtractionSource)
	}
	if row.Discipline != "Structural" {
		t.Errorf("discipline = %q", row.Discipline)
	}
	if !row.NeedsReview {
		t.Error("partial vision result must route to review")
	}
	if notes := decodeNotes(t, row); notes.VisionOutcome != "accepted_number_only" {
		t.Errorf("vision outcome = %q", notes.VisionOutcome)
	}
}

func TestProcessVisionNumberRejectedWithGeometricTitle(t *testing.T) {
	fv := &fakeVision{result: &vision.Result{SheetNumber: "S101", SheetTitle: "--"}}
	r := newTestRunner(fv, newMemStore())
	doc := &fakeDoc{pages: []fakePage{{items: titleOnlyItems("ROOF FRAMING PLAN")}}}

	_, rows := r.process(context.Background(), "job-1", doc)

	row := rows[0]
	if row.SheetNumber != "" {
		t.Errorf("vision number accepted despite a geometric title: %q", row.SheetNumber)
	}
	if row.SheetTitle != "ROOF FRAMING PLAN" {
		t.Errorf("geometric title lost: %q", row.SheetTitle)
	}
	if row.ExtractionSource != "vector_text" {
		t.Errorf("extraction source = %q", row.ExtractionSource)
	}
	if !closeTo(row.Confidence, 0.40) {
		t.Errorf("confidence = %v, want failure cap 0.40", row.Confidence)
	}
	if notes := decodeNotes(t, row); notes.VisionOutcome != "rejected" {
		t.Errorf("vision outcome = %q", notes.VisionOutcome)
	}
}

func TestProcessVisionDegradesToGeometric(t *testing.T) {
	cases := []struct {
		name    string
		vis     *fakeVision
		outcome string
	}{
		{"call failed", &fakeVision{err: errors.New("model unavailable")}, "call_failed"},
		{"unusable result", &fakeVision{result: &vision.Result{}}, "rejected"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRunner(tc.vis, newMemStore())
			// Number only, no title: provisional confidence lands below
			// the vision trigger.
			doc := &fakeDoc{pages: []fakePage{{items: heuristicItems("A201", "")}}}

			_, rows := r.process(context.Background(), "job-1", doc)

			row := rows[0]
			if row.SheetNumber != "A201" {
				t.Fatalf("geometric number lost: %q", row.SheetNumber)
			}
			if row.ExtractionSource != "vector_text" {
				t.Errorf("extraction source = %q", row.ExtractionSource)
			}
			if !closeTo(row.Confidence, 0.40) {
				t.Errorf("confidence = %v, want failure cap 0.40", row.Confidence)
			}
			if !row.NeedsReview || row.ManualRequired {
				t.Errorf("capped page must route to review: review=%v manual=%v", row.NeedsReview, row.ManualRequired)
			}
			if tc.vis.hints[0] != "A201" {
				t.Errorf("number hint = %q, want geometric value", tc.vis.hints[0])
			}
			if notes := decodeNotes(t, row); notes.VisionOutcome != tc.outcome {
				t.Errorf("vision outcome = %q, want %q", notes.VisionOutcome, tc.outcome)
			}
		})
	}
}

func TestProcessPageFailureIsolation(t *testing.T) {
	fv := &fakeVision{result: &vision.Result{SheetNumber: "A101", SheetTitle: "FLOOR PLAN"}}
	r := newTestRunner(fv, newMemStore())
	doc := &fakeDoc{pages: []fakePage{
		{textErr: errors.New("malformed content stream")},
		{items: anchoredItems("A102", "SECOND FLOOR PLAN")},
	}}

	summary, rows := r.process(context.Background(), "job-1", doc)

	if len(rows) != 2 {
		t.Fatalf("expected one row per page, got %d", len(rows))
	}
	if summary.FailedPages != 1 {
		t.Errorf("failed pages = %d, want 1", summary.FailedPages)
	}
	if fv.calls != 0 {
		t.Errorf("vision must not run on a failed page, got %d calls", fv.calls)
	}

	placeholder := rows[0]
	if placeholder.SourceIndex != 0 {
		t.Errorf("placeholder source index = %d", placeholder.SourceIndex)
	}
	if placeholder.Confidence != 0 {
		t.Errorf("placeholder confidence = %v, want 0", placeholder.Confidence)
	}
	if !placeholder.ManualRequired {
		t.Error("placeholder row must require manual handling")
	}
	if placeholder.ExtractionSource != "unknown" {
		t.Errorf("placeholder source = %q", placeholder.ExtractionSource)
	}
	if notes := decodeNotes(t, placeholder); notes.Error == "" {
		t.Error("placeholder notes must carry the page error")
	}

	good := rows[1]
	if good.SourceIndex != 1 || good.SheetNumber != "A102" {
		t.Errorf("surviving page wrong: index=%d number=%q", good.SourceIndex, good.SheetNumber)
	}
}

func TestProcessBoilerplateSuppression(t *testing.T) {
	const boilerplate = "GENERAL NOTES ABBREVIATIONS AND SYMBOLS LEGEND SHEET"
	if len(boilerplate) <= 40 {
		t.Fatalf("fixture title too short: %d", len(boilerplate))
	}

	fv := &fakeVision{result: &vision.Result{SheetNumber: "A101", SheetTitle: "FLOOR PLAN"}}
	r := newTestRunner(fv, newMemStore())

	var pages []fakePage
	for i := 1; i <= 10; i++ {
		pages = append(pages, fakePage{items: anchoredItems(fmt.Sprintf("A%03d", i), boilerplate)})
	}
	pages = append(pages,
		fakePage{items: anchoredItems("G001", "COVER SHEET INDEX")},
		fakePage{items: anchoredItems("A901", "ROOF PLAN")},
	)
	doc := &fakeDoc{pages: pages}

	summary, rows := r.process(context.Background(), "job-1", doc)

	if fv.calls != 10 {
		t.Fatalf("vision calls = %d, want exactly the 10 repeated-title pages", fv.calls)
	}
	if summary.VisionCalls != 10 {
		t.Errorf("summary vision calls = %d", summary.VisionCalls)
	}

	for i := 0; i < 10; i++ {
		notes := decodeNotes(t, rows[i])
		if !notes.BoilerplateTitle {
			t.Errorf("page %d not flagged as boilerplate", i+1)
		}
		if rows[i].ExtractionSource != "vision_titleblock" {
			t.Errorf("page %d source = %q, want vision re-extraction", i+1, rows[i].ExtractionSource)
		}
	}
	for i := 10; i < 12; i++ {
		notes := decodeNotes(t, rows[i])
		if notes.BoilerplateTitle {
			t.Errorf("unique-title page %d flagged as boilerplate", i+1)
		}
		if rows[i].ExtractionSource != "vector_text" {
			t.Errorf("unique-title page %d source = %q", i+1, rows[i].ExtractionSource)
		}
	}
}

func TestProcessVisionUnavailable(t *testing.T) {
	r := newTestRunner(nil, newMemStore())
	doc := &fakeDoc{pages: []fakePage{{}}}

	summary, rows := r.process(context.Background(), "job-1", doc)

	if summary.VisionCalls != 0 {
		t.Fatalf("vision calls = %d with no client", summary.VisionCalls)
	}
	row := rows[0]
	if row.ExtractionSource != "unknown" {
		t.Errorf("extraction source = %q", row.ExtractionSource)
	}
	if !row.ManualRequired {
		t.Error("unidentifiable page without vision must require manual")
	}

	notes := decodeNotes(t, row)
	joined := strings.Join(notes.FallbackPath, ",")
	if !strings.Contains(joined, "vision_unavailable") {
		t.Errorf("fallback path %v does not record missing vision client", notes.FallbackPath)
	}
}

func TestProcessSavesArtifacts(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	fv := &fakeVision{result: &vision.Result{SheetNumber: "A301", SheetTitle: "ROOF FRAMING PLAN"}}
	r := New(nil, fv, newMemStore(), h, DefaultConfig(), testLogger())
	doc := &fakeDoc{pages: []fakePage{{}}}

	_, rows := r.process(context.Background(), "job-1", doc)

	row := rows[0]
	if row.RenderPath == "" || row.CropPath == "" {
		t.Fatalf("artifact paths not recorded: render=%q crop=%q", row.RenderPath, row.CropPath)
	}
	for _, path := range []string{row.RenderPath, row.CropPath} {
		if _, statErr := os.Stat(path); statErr != nil {
			t.Errorf("artifact not written: %v", statErr)
		}
	}
}

func TestProcessRendersEveryPage(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	fv := &fakeVision{}
	r := New(nil, fv, newMemStore(), h, DefaultConfig(), testLogger())
	doc := &fakeDoc{pages: []fakePage{{items: anchoredItems("A101", "FLOOR PLAN")}}}

	_, rows := r.process(context.Background(), "job-1", doc)

	if fv.calls != 0 {
		t.Fatalf("vision called %d times for a confident anchored page", fv.calls)
	}
	row := rows[0]
	if row.RenderPath == "" {
		t.Fatal("confident page missing its full-page render asset")
	}
	if _, statErr := os.Stat(row.RenderPath); statErr != nil {
		t.Errorf("render not written: %v", statErr)
	}
	if row.CropPath != "" {
		t.Errorf("crop written without a vision pass: %q", row.CropPath)
	}
}

func TestProcessRenderFailureDegrades(t *testing.T) {
	fv := &fakeVision{result: &vision.Result{SheetNumber: "A301", SheetTitle: "ROOF FRAMING PLAN"}}
	r := newTestRunner(fv, newMemStore())
	doc := &fakeDoc{pages: []fakePage{{
		items:     heuristicItems("A201", ""),
		renderErr: errors.New("pdftoppm exited 1"),
	}}}

	_, rows := r.process(context.Background(), "job-1", doc)

	if fv.calls != 0 {
		t.Fatalf("vision called %d times without a render", fv.calls)
	}
	row := rows[0]
	if row.SheetNumber != "A201" {
		t.Fatalf("geometric number lost: %q", row.SheetNumber)
	}
	if row.ExtractionSource != "vector_text" {
		t.Errorf("extraction source = %q", row.ExtractionSource)
	}
	if !closeTo(row.Confidence, 0.40) {
		t.Errorf("confidence = %v, want failure cap 0.40", row.Confidence)
	}
	if notes := decodeNotes(t, row); notes.VisionOutcome != "render_failed" {
		t.Errorf("vision outcome = %q", notes.VisionOutcome)
	}
}

func TestNewFillsConfigDefaults(t *testing.T) {
	r := New(nil, nil, newMemStore(), nil, Config{ReviewThreshold: 0.9}, testLogger())

	if r.cfg.ReviewThreshold != 0.9 {
		t.Errorf("caller threshold overwritten: %v", r.cfg.ReviewThreshold)
	}
	def := DefaultConfig()
	if r.cfg.ManualThreshold != def.ManualThreshold || r.cfg.VisionTrigger != def.VisionTrigger {
		t.Errorf("zero threshold fields not defaulted: %+v", r.cfg)
	}
	if r.cfg.BoilerplateCutoff != def.BoilerplateCutoff || r.cfg.BoilerplateMinLen != def.BoilerplateMinLen {
		t.Errorf("zero boilerplate fields not defaulted: %+v", r.cfg)
	}
}

func TestRunOpenFailureFailsJob(t *testing.T) {
	ms := newMemStore()
	r := New(render.New(render.Config{DPI: 150, Logger: testLogger()}), nil, ms, nil, DefaultConfig(), testLogger())

	_, err := r.Run(context.Background(), "job-x", "/nonexistent/drawings.pdf")
	if err == nil {
		t.Fatal("expected error opening missing document")
	}

	job, getErr := ms.GetJob(context.Background(), "job-x")
	if getErr != nil {
		t.Fatalf("job not recorded: %v", getErr)
	}
	if job.Status != store.JobFailed {
		t.Errorf("job status = %q, want failed", job.Status)
	}
	if job.Error == "" {
		t.Error("job error message not recorded")
	}
}
