package render

import (
	"strings"

	"github.com/planscope/sheetdex/internal/sheet"
)

// mergeRuns assembles per-glyph text fragments into runs. PDF content
// streams emit text a few glyphs at a time; label matching needs
// "SHEET NO." as one item, not six. Fragments merge when they share a
// baseline and the horizontal gap is small relative to the font size.
// A gap wider than one em breaks the run, which keeps a label and the
// value next to it as separate items.
func mergeRuns(items []sheet.TextItem) []sheet.TextItem {
	if len(items) == 0 {
		return items
	}

	merged := make([]sheet.TextItem, 0, len(items))
	cur := items[0]

	for _, it := range items[1:] {
		if sameRun(cur, it) {
			gap := it.X - (cur.X + cur.Width)
			if gap > wordGap(cur)*0.25 && !strings.HasSuffix(cur.Text, " ") {
				cur.Text += " "
			}
			cur.Text += it.Text
			cur.Width = it.X + it.Width - cur.X
			if it.Height > cur.Height {
				cur.Height = it.Height
			}
			continue
		}
		merged = append(merged, finishRun(cur))
		cur = it
	}
	merged = append(merged, finishRun(cur))
	return merged
}

func sameRun(cur, next sheet.TextItem) bool {
	baseline := cur.Height
	if baseline <= 0 {
		baseline = 10
	}
	if abs(next.Y-cur.Y) > baseline*0.4 {
		return false
	}
	gap := next.X - (cur.X + cur.Width)
	return gap >= -baseline*0.5 && gap <= wordGap(cur)
}

// wordGap is the largest horizontal gap still considered part of the
// same run, roughly one em.
func wordGap(it sheet.TextItem) float64 {
	if it.Height > 0 {
		return it.Height
	}
	return 10
}

func finishRun(it sheet.TextItem) sheet.TextItem {
	it.Text = strings.TrimSpace(it.Text)
	return it
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
