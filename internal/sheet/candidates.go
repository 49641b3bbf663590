package sheet

import "strings"

// TextInRegion returns the normalized text of every item whose visual
// center falls inside the region, in page order. Containment tests the
// item's center rather than its box so long spans that merely graze the
// region edge do not leak in. Empty strings are dropped.
func TextInRegion(items []TextItem, vp Viewport, region PixelRect) []string {
	var out []string
	for _, item := range items {
		if !region.Contains(VisualCenter(item, vp)) {
			continue
		}
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}
