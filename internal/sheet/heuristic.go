package sheet

// Title-block quadrant used by the non-anchored fallback: sheet numbers
// live almost universally in the bottom-right corner of the sheet.
const (
	quadrantWidthFrac  = 0.22
	quadrantHeightFrac = 0.20
)

// HeuristicResult is the outcome of whole-page fallback extraction.
type HeuristicResult struct {
	Number         string
	NumberPriority int
	Title          string
	TitleScore     int
	TitleCheck     TitleCheck
}

// Heuristic extracts a sheet number and title without label anchoring,
// the fallback for sheets with non-standard title blocks where the
// label lexicon finds nothing. Number candidates are taken from the
// bottom-right title-block quadrant with a positional bias toward the
// corner; title candidates are scored by the validator across the
// right-hand strip of the page. Intentionally cruder than the anchored
// path, and capped at a lower confidence base upstream to match.
func Heuristic(items []TextItem, vp Viewport) HeuristicResult {
	pageW := vp.Width * vp.Scale
	pageH := vp.Height * vp.Scale

	quadrant := PixelRect{
		X: pageW * (1 - quadrantWidthFrac),
		Y: pageH * (1 - quadrantHeightFrac),
		W: pageW * quadrantWidthFrac,
		H: pageH * quadrantHeightFrac,
	}
	// Titles sit higher in the title block than numbers do, so the
	// title strip covers the full right edge.
	titleStrip := PixelRect{
		X: pageW * (1 - quadrantWidthFrac),
		Y: 0,
		W: pageW * quadrantWidthFrac,
		H: pageH,
	}

	var result HeuristicResult
	bestNumberScore := -1.0
	bestTitleScore := -1

	for _, item := range items {
		center := VisualCenter(item, vp)

		if quadrant.Contains(center) {
			check := ValidateSheetNumber(item.Text)
			if check.Valid {
				// Corner bias: the further down and right, the likelier
				// this is the sheet number and not a detail callout.
				positional := (center.X/pageW + center.Y/pageH) / 2
				score := float64(check.Priority)*10 + positional
				if score > bestNumberScore {
					bestNumberScore = score
					result.Number = check.Value
					result.NumberPriority = check.Priority
				}
			}
		}

		if titleStrip.Contains(center) {
			check := ValidateSheetTitle(item.Text)
			if check.Valid && check.Score > bestTitleScore {
				bestTitleScore = check.Score
				result.Title = check.Value
				result.TitleScore = check.Score
				result.TitleCheck = check
			}
		}
	}

	return result
}
