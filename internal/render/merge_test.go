package render

import (
	"testing"

	"github.com/planscope/sheetdex/internal/sheet"
)

func TestMergeRunsAssemblesLabel(t *testing.T) {
	// "SHEET NO." emitted as three fragments on one baseline.
	items := []sheet.TextItem{
		{Text: "SHE", X: 50, Y: 100, Width: 18, Height: 10},
		{Text: "ET", X: 68, Y: 100, Width: 12, Height: 10},
		{Text: "NO.", X: 84, Y: 100, Width: 18, Height: 10},
	}
	merged := mergeRuns(items)
	if len(merged) != 1 {
		t.Fatalf("expected 1 run, got %d: %v", len(merged), merged)
	}
	if merged[0].Text != "SHEET NO." {
		t.Errorf("merged text = %q, want %q", merged[0].Text, "SHEET NO.")
	}
	if merged[0].X != 50 {
		t.Errorf("run X = %v, want 50", merged[0].X)
	}
	if merged[0].Width != 52 {
		t.Errorf("run width = %v, want 52", merged[0].Width)
	}
}

func TestMergeRunsBreaksOnWideGap(t *testing.T) {
	// Label and value separated by well over an em stay distinct.
	items := []sheet.TextItem{
		{Text: "SHEET NO.", X: 50, Y: 100, Width: 52, Height: 10},
		{Text: "A101", X: 140, Y: 100, Width: 28, Height: 12},
	}
	merged := mergeRuns(items)
	if len(merged) != 2 {
		t.Fatalf("expected 2 runs, got %d: %v", len(merged), merged)
	}
	if merged[0].Text != "SHEET NO." || merged[1].Text != "A101" {
		t.Errorf("unexpected runs: %v", merged)
	}
}

func TestMergeRunsBreaksOnBaselineChange(t *testing.T) {
	items := []sheet.TextItem{
		{Text: "FIRST", X: 50, Y: 100, Width: 30, Height: 10},
		{Text: "FLOOR", X: 50, Y: 85, Width: 32, Height: 10},
	}
	merged := mergeRuns(items)
	if len(merged) != 2 {
		t.Fatalf("expected 2 runs, got %d: %v", len(merged), merged)
	}
}

func TestMergeRunsEmpty(t *testing.T) {
	if got := mergeRuns(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
