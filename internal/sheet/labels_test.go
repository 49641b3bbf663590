package sheet

import "testing"

var testViewport = Viewport{Width: 612, Height: 792, Scale: 1.0}

func detectOne(t *testing.T, text string) []LabelHit {
	t.Helper()
	items := []TextItem{{Text: text, X: 100, Y: 100, Width: 80, Height: 12}}
	return DetectLabels(items, testViewport)
}

func TestDetectLabels_NumberLexicon(t *testing.T) {
	for _, text := range []string{
		"SHEET NO.", "SHEET NO", "Sheet Number", "SHEET #", "SHEET NO.:",
		"DRAWING NO.", "DWG NO.", "DWG. NO.", "SHT NO.",
	} {
		hits := detectOne(t, text)
		if len(hits) != 1 {
			t.Errorf("%q: expected 1 hit, got %d", text, len(hits))
			continue
		}
		if hits[0].Type != LabelNumber {
			t.Errorf("%q: expected number label, got %s", text, hits[0].Type)
		}
		if hits[0].Weight != WeightStrong {
			t.Errorf("%q: expected weight %d, got %d", text, WeightStrong, hits[0].Weight)
		}
	}
}

func TestDetectLabels_TitleLexicon(t *testing.T) {
	for _, text := range []string{"SHEET TITLE", "DRAWING TITLE:", "TITLE:"} {
		hits := detectOne(t, text)
		if len(hits) != 1 || hits[0].Type != LabelTitle {
			t.Errorf("%q: expected one title label hit, got %+v", text, hits)
		}
	}
}

func TestDetectLabels_BareTitleIsModerate(t *testing.T) {
	hits := detectOne(t, "TITLE")
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Type != LabelModerate || hits[0].Weight != WeightModerate {
		t.Errorf("bare TITLE should be a weight-2 moderate hit, got %+v", hits[0])
	}
}

func TestDetectLabels_BareSheetIsNotALabel(t *testing.T) {
	// "SHEET" alone appears all over drawings in unrelated contexts and
	// must never anchor extraction.
	for _, text := range []string{"SHEET", "sheet", " SHEET "} {
		if hits := detectOne(t, text); len(hits) != 0 {
			t.Errorf("%q: expected no hits, got %+v", text, hits)
		}
	}
}

func TestDetectLabels_SingleClassification(t *testing.T) {
	// "SHEET TITLE" contains the moderate "TITLE" token but must only
	// classify once, as a title label.
	hits := detectOne(t, "SHEET TITLE")
	if len(hits) != 1 {
		t.Fatalf("expected exactly 1 hit, got %d", len(hits))
	}
	if hits[0].Type != LabelTitle {
		t.Errorf("expected title classification, got %s", hits[0].Type)
	}
}

func TestDetectLabels_EnforcesMinimumBox(t *testing.T) {
	items := []TextItem{{Text: "SHEET NO.", X: 100, Y: 100, Width: 30, Height: 4}}
	hits := DetectLabels(items, testViewport)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].BBox.W < minLabelBoxW || hits[0].BBox.H < minLabelBoxH {
		t.Errorf("expected minimum box %vx%v enforced, got %vx%v",
			minLabelBoxW, minLabelBoxH, hits[0].BBox.W, hits[0].BBox.H)
	}
}

func TestHasCoherentCluster(t *testing.T) {
	numberHit := LabelHit{Type: LabelNumber, Center: Point{X: 2000, Y: 2800}}
	titleNear := LabelHit{Type: LabelTitle, Center: Point{X: 2050, Y: 2500}}
	titleFar := LabelHit{Type: LabelTitle, Center: Point{X: 100, Y: 100}}

	if !HasCoherentCluster([]LabelHit{numberHit, titleNear}) {
		t.Error("expected nearby number+title labels to form a cluster")
	}
	if HasCoherentCluster([]LabelHit{numberHit, titleFar}) {
		t.Error("expected distant labels not to cluster")
	}
	if HasCoherentCluster([]LabelHit{numberHit}) {
		t.Error("a lone number label is not a cluster")
	}
}
