package sheet

import "fmt"

// Base confidence by extraction source. Anchored vector extraction is
// the most trusted path; a failed crop or unknown source lands the
// sheet in manual review on its own.
var sourceBase = map[Source]float64{
	SourceVectorAnchored:  0.95,
	SourceVectorHeuristic: 0.80,
	SourceOCRCrop:         0.75,
	SourceVisionCrop:      0.70,
	SourceVisionFull:      0.60,
	SourceFailCrop:        0.30,
	SourceUnknown:         0.20,
}

// Default routing cut points. Overridable per Gate because the source
// generations disagreed on exact values.
const (
	DefaultReviewThreshold = 0.85
	DefaultManualThreshold = 0.30
)

// Signals are the inputs to the confidence gate for one sheet.
type Signals struct {
	Source              Source
	FoundNumber         bool
	FoundTitle          bool
	AnchoredBonus       float64 // +0.05 when the anchored extractor won
	LabelCluster        bool    // number and title labels in one spatial cluster
	NumberTopTier       bool    // accepted number matched a priority-3 pattern
	TitleClean          bool    // title passed with no ambiguity flags
	TruncationSuspected bool
	ConfidenceCap       float64 // >0 applies a ceiling (vision success/failure caps)
}

// ConfidenceResult is the gate's decision for one sheet. Exactly one
// of FlagForReview/ManualFlag is set below the review threshold, and
// neither at or above it.
type ConfidenceResult struct {
	Confidence    float64  `json:"confidence"`
	FlagForReview bool     `json:"flag_for_review"`
	ManualFlag    bool     `json:"manual_flag"`
	Breakdown     []string `json:"breakdown"`
}

// Gate converts extraction signals into a final confidence score and a
// routing decision. Scoring is additive and deterministic; every
// adjustment is recorded in the breakdown so a reviewer can see why a
// sheet scored what it did, not just the number.
type Gate struct {
	ReviewThreshold float64
	ManualThreshold float64
}

// NewGate returns a gate with the default routing thresholds.
func NewGate() Gate {
	return Gate{
		ReviewThreshold: DefaultReviewThreshold,
		ManualThreshold: DefaultManualThreshold,
	}
}

// Score applies the point model to the signals.
func (g Gate) Score(sig Signals) ConfidenceResult {
	base, ok := sourceBase[sig.Source]
	if !ok {
		base = sourceBase[SourceUnknown]
	}

	confidence := base
	breakdown := []string{fmt.Sprintf("base %s: %.2f", sig.Source, base)}

	add := func(delta float64, reason string) {
		confidence += delta
		breakdown = append(breakdown, fmt.Sprintf("%+.2f %s", delta, reason))
	}

	if sig.AnchoredBonus != 0 {
		add(sig.AnchoredBonus, "anchored extraction")
	}
	if sig.LabelCluster {
		add(0.03, "number and title labels in same cluster")
	}
	if sig.NumberTopTier {
		add(0.03, "sheet number matched top-tier pattern")
	}
	if sig.TitleClean && sig.FoundTitle {
		add(0.02, "title passed all clean checks")
	}
	// A record with half its identity is operationally almost as bad as
	// none, so partial identification is penalized beyond what either
	// missing signal alone would cost.
	if sig.FoundNumber != sig.FoundTitle {
		add(-0.10, "partial identification (number xor title)")
	}
	if sig.TruncationSuspected {
		add(-0.20, "title truncation suspected")
	}

	if sig.ConfidenceCap > 0 && confidence > sig.ConfidenceCap {
		breakdown = append(breakdown, fmt.Sprintf("capped at %.2f", sig.ConfidenceCap))
		confidence = sig.ConfidenceCap
	}

	if confidence > 1.0 {
		breakdown = append(breakdown, "clamped to 1.00")
		confidence = 1.0
	}
	if confidence < 0.0 {
		breakdown = append(breakdown, "clamped to 0.00")
		confidence = 0.0
	}

	result := ConfidenceResult{
		Confidence: confidence,
		Breakdown:  breakdown,
	}

	switch {
	case confidence >= g.ReviewThreshold:
		// Auto-accept: no flags.
	case confidence >= g.ManualThreshold:
		result.FlagForReview = true
		breakdown = append(breakdown, "routing: flag for review")
		result.Breakdown = breakdown
	default:
		result.ManualFlag = true
		breakdown = append(breakdown, "routing: manual required")
		result.Breakdown = breakdown
	}

	return result
}
