package sheet

import (
	"math"
	"strings"
	"testing"
)

func TestGate_ClampsStackedBonuses(t *testing.T) {
	// 0.95 + 0.05 + 0.03 + 0.03 + 0.02 exceeds 1.0 and must clamp to
	// exactly 1.00.
	result := NewGate().Score(Signals{
		Source:        SourceVectorAnchored,
		FoundNumber:   true,
		FoundTitle:    true,
		AnchoredBonus: 0.05,
		LabelCluster:  true,
		NumberTopTier: true,
		TitleClean:    true,
	})

	if result.Confidence != 1.0 {
		t.Errorf("expected exactly 1.00, got %v", result.Confidence)
	}
	if result.FlagForReview || result.ManualFlag {
		t.Errorf("auto-accept tier must carry no flags: %+v", result)
	}
}

func TestGate_TruncationPenaltyIsExact(t *testing.T) {
	base := Signals{
		Source:      SourceVectorHeuristic,
		FoundNumber: true,
		FoundTitle:  true,
	}
	truncated := base
	truncated.TruncationSuspected = true

	g := NewGate()
	without := g.Score(base).Confidence
	with := g.Score(truncated).Confidence

	if diff := without - with; math.Abs(diff-0.20) > 1e-9 {
		t.Errorf("truncation must cost exactly 0.20, cost %v", diff)
	}
}

func TestGate_PartialIdentificationPenalty(t *testing.T) {
	g := NewGate()

	both := g.Score(Signals{Source: SourceVectorHeuristic, FoundNumber: true, FoundTitle: true})
	numberOnly := g.Score(Signals{Source: SourceVectorHeuristic, FoundNumber: true})
	titleOnly := g.Score(Signals{Source: SourceVectorHeuristic, FoundTitle: true})

	if diff := both.Confidence - numberOnly.Confidence; math.Abs(diff-0.10) > 1e-9 {
		t.Errorf("number-only must cost 0.10, cost %v", diff)
	}
	if numberOnly.Confidence != titleOnly.Confidence {
		t.Errorf("xor penalty must be symmetric: %v vs %v",
			numberOnly.Confidence, titleOnly.Confidence)
	}
}

func TestGate_RoutingTiersExclusiveAndExhaustive(t *testing.T) {
	g := NewGate()
	cases := []struct {
		sig    Signals
		review bool
		manual bool
	}{
		{Signals{Source: SourceVectorAnchored, FoundNumber: true, FoundTitle: true, NumberTopTier: true}, false, false},
		{Signals{Source: SourceVectorHeuristic, FoundNumber: true, FoundTitle: true}, true, false},
		{Signals{Source: SourceFailCrop}, true, false}, // 0.30 sits on the review boundary
		{Signals{Source: SourceUnknown}, false, true},
	}
	for i, tc := range cases {
		result := g.Score(tc.sig)
		if result.FlagForReview != tc.review || result.ManualFlag != tc.manual {
			t.Errorf("case %d (%.2f): expected review=%v manual=%v, got review=%v manual=%v",
				i, result.Confidence, tc.review, tc.manual, result.FlagForReview, result.ManualFlag)
		}
		if result.FlagForReview && result.ManualFlag {
			t.Errorf("case %d: routing flags are mutually exclusive", i)
		}
	}
}

func TestGate_VisionCaps(t *testing.T) {
	g := NewGate()

	// Vision success: capped at 0.95 no matter the bonuses.
	success := g.Score(Signals{
		Source:        SourceVisionCrop,
		FoundNumber:   true,
		FoundTitle:    true,
		NumberTopTier: true,
		TitleClean:    true,
		ConfidenceCap: 0.95,
	})
	if success.Confidence > 0.95 {
		t.Errorf("vision success must cap at 0.95, got %v", success.Confidence)
	}

	// Vision failure: capped at 0.40, which forces review routing.
	failure := g.Score(Signals{
		Source:        SourceVectorHeuristic,
		FoundNumber:   true,
		FoundTitle:    true,
		ConfidenceCap: 0.40,
	})
	if failure.Confidence > 0.40 {
		t.Errorf("vision failure must cap at 0.40, got %v", failure.Confidence)
	}
	if !failure.FlagForReview {
		t.Errorf("capped score must route to review: %+v", failure)
	}
}

func TestGate_BreakdownRecordsEveryAdjustment(t *testing.T) {
	result := NewGate().Score(Signals{
		Source:              SourceVectorAnchored,
		FoundNumber:         true,
		AnchoredBonus:       0.05,
		NumberTopTier:       true,
		TruncationSuspected: true,
	})

	joined := strings.Join(result.Breakdown, "\n")
	for _, want := range []string{
		"base vector_anchored: 0.95",
		"+0.05 anchored extraction",
		"+0.03 sheet number matched top-tier pattern",
		"-0.10 partial identification",
		"-0.20 title truncation suspected",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("breakdown missing %q:\n%s", want, joined)
		}
	}
}

func TestGate_ConfidenceAlwaysInUnitInterval(t *testing.T) {
	g := NewGate()
	sources := []Source{
		SourceVectorAnchored, SourceVectorHeuristic, SourceOCRCrop,
		SourceVisionCrop, SourceVisionFull, SourceFailCrop, SourceUnknown,
	}
	for _, src := range sources {
		for _, trunc := range []bool{false, true} {
			for _, partial := range []bool{false, true} {
				result := g.Score(Signals{
					Source:              src,
					FoundNumber:         true,
					FoundTitle:          !partial,
					AnchoredBonus:       0.05,
					LabelCluster:        true,
					NumberTopTier:       true,
					TitleClean:          true,
					TruncationSuspected: trunc,
				})
				if result.Confidence < 0 || result.Confidence > 1 {
					t.Errorf("%s trunc=%v partial=%v: confidence %v outside [0,1]",
						src, trunc, partial, result.Confidence)
				}
			}
		}
	}
}
