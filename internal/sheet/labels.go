package sheet

import (
	"regexp"
	"strings"
)

// Minimum label bounding box in pixels. Label spans in vector text
// layers are often degenerate-thin, which would produce unusable
// anchor geometry for region derivation.
const (
	minLabelBoxW = 50.0
	minLabelBoxH = 20.0
)

// Label lexicon. Patterns are anchored so a bare generic "SHEET" never
// matches: too many drawings say "SHEET" in unrelated contexts (general
// notes, shingle schedules, "SEE SHEET A-101") for it to anchor anything.
var (
	numberLabelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*sheet\s*(no|number|num|#)\s*[.:#]*\s*$`),
		regexp.MustCompile(`(?i)^\s*(drawing|dwg|sht)\s*\.?\s*(no|number|#)\s*[.:#]*\s*$`),
	}
	titleLabelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*sheet\s*title\s*[.:]*\s*$`),
		regexp.MustCompile(`(?i)^\s*drawing\s*title\s*[.:]*\s*$`),
		regexp.MustCompile(`(?i)^\s*title\s*:\s*$`),
	}
	moderateLabelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*title\s*$`),
	}
)

// DetectLabels scans the page text items for label lexicon hits. Each
// item is tested against the tiers in priority order and classified by
// the first tier that matches, so a single span never produces two hits.
func DetectLabels(items []TextItem, vp Viewport) []LabelHit {
	var hits []LabelHit
	for _, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}

		labelType, weight, ok := classifyLabel(text)
		if !ok {
			continue
		}

		bbox := MapToPixels(item, vp)
		if bbox.W < minLabelBoxW {
			bbox.W = minLabelBoxW
		}
		if bbox.H < minLabelBoxH {
			bbox.H = minLabelBoxH
		}

		hits = append(hits, LabelHit{
			Text:   text,
			Type:   labelType,
			Weight: weight,
			BBox:   bbox,
			Center: bbox.Center(),
		})
	}
	return hits
}

func classifyLabel(text string) (LabelType, int, bool) {
	for _, re := range numberLabelPatterns {
		if re.MatchString(text) {
			return LabelNumber, WeightStrong, true
		}
	}
	for _, re := range titleLabelPatterns {
		if re.MatchString(text) {
			return LabelTitle, WeightStrong, true
		}
	}
	for _, re := range moderateLabelPatterns {
		if re.MatchString(text) {
			return LabelModerate, WeightModerate, true
		}
	}
	return "", 0, false
}

// clusterRadius is the center-to-center distance within which two label
// hits are considered part of the same title-block cluster.
const clusterRadius = 600.0

// HasCoherentCluster reports whether a number-type label and a
// title-type label sit within the same spatial cluster. Paired labels
// are evidence of a real title block rather than two unrelated matches,
// and earn a small confidence bonus.
func HasCoherentCluster(hits []LabelHit) bool {
	for _, a := range hits {
		if a.Type != LabelNumber {
			continue
		}
		for _, b := range hits {
			if b.Type != LabelTitle && b.Type != LabelModerate {
				continue
			}
			dx := a.Center.X - b.Center.X
			dy := a.Center.Y - b.Center.Y
			if dx*dx+dy*dy <= clusterRadius*clusterRadius {
				return true
			}
		}
	}
	return false
}
