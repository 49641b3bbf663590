package sheet

import "sort"

// anchoredBonus is the confidence bonus earned when a value is found
// adjacent to a detected label rather than by whole-page heuristics.
const anchoredBonus = 0.05

type anchoredCandidate struct {
	value    string
	label    string
	region   RegionType
	priority int
	score    int
	weight   int
}

// AnchoredNumber runs label-anchored extraction for the sheet number:
// for each number-type label hit it derives the right-of and below
// regions, validates region text in page order, and records the first
// accepted candidate per region. All attempted regions are returned,
// pass or fail. Returns nil when no label hit yields a valid candidate,
// which is the signal to fall back to heuristic or vision extraction.
func AnchoredNumber(items []TextItem, vp Viewport, hits []LabelHit) (*AnchoredValue, []RegionAttempt) {
	var accepted []anchoredCandidate
	var attempts []RegionAttempt

	for _, hit := range hits {
		if hit.Type != LabelNumber {
			continue
		}
		for _, region := range DeriveRegions(hit) {
			attempt := RegionAttempt{
				Region:    region.Type,
				LabelUsed: hit.Text,
				BBox:      region.BBox,
			}
			attempt.Candidates = TextInRegion(items, vp, region.BBox)

			var lastReject Reject
			for _, candidate := range attempt.Candidates {
				check := ValidateSheetNumber(candidate)
				if check.Valid {
					attempt.Chosen = check.Value
					attempt.Pass = true
					accepted = append(accepted, anchoredCandidate{
						value:    check.Value,
						label:    hit.Text,
						region:   region.Type,
						priority: check.Priority,
						weight:   hit.Weight,
					})
					break
				}
				lastReject = check.RejectionReason
			}
			if !attempt.Pass {
				if lastReject == "" && len(attempt.Candidates) == 0 {
					lastReject = RejectOther
				}
				attempt.RejectionReason = lastReject
			}
			attempts = append(attempts, attempt)
		}
	}

	if len(accepted) == 0 {
		return nil, attempts
	}

	// Higher pattern priority wins; shorter value breaks ties so a loose
	// match that swallowed trailing noise never beats a clean one.
	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].priority != accepted[j].priority {
			return accepted[i].priority > accepted[j].priority
		}
		return len(accepted[i].value) < len(accepted[j].value)
	})

	best := accepted[0]
	return &AnchoredValue{
		Value:           best.value,
		Label:           best.label,
		Region:          best.region,
		Priority:        best.priority,
		ConfidenceBonus: anchoredBonus,
	}, attempts
}

// AnchoredTitle runs label-anchored extraction for the sheet title
// across title-type and moderate label hits. Same contract as
// AnchoredNumber; ties break on the validator's computed score.
func AnchoredTitle(items []TextItem, vp Viewport, hits []LabelHit) (*AnchoredValue, []RegionAttempt) {
	var accepted []anchoredCandidate
	var attempts []RegionAttempt

	for _, hit := range hits {
		if hit.Type != LabelTitle && hit.Type != LabelModerate {
			continue
		}
		for _, region := range DeriveRegions(hit) {
			attempt := RegionAttempt{
				Region:    region.Type,
				LabelUsed: hit.Text,
				BBox:      region.BBox,
			}
			attempt.Candidates = TextInRegion(items, vp, region.BBox)

			var lastReject Reject
			for _, candidate := range attempt.Candidates {
				check := ValidateSheetTitle(candidate)
				if check.Valid {
					attempt.Chosen = check.Value
					attempt.Pass = true
					accepted = append(accepted, anchoredCandidate{
						value:  check.Value,
						label:  hit.Text,
						region: region.Type,
						score:  check.Score,
						weight: hit.Weight,
					})
					break
				}
				lastReject = check.RejectionReason
			}
			if !attempt.Pass {
				if lastReject == "" && len(attempt.Candidates) == 0 {
					lastReject = RejectOther
				}
				attempt.RejectionReason = lastReject
			}
			attempts = append(attempts, attempt)
		}
	}

	if len(accepted) == 0 {
		return nil, attempts
	}

	// The validator's computed score decides outright; label weight
	// only breaks exact score ties.
	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].score != accepted[j].score {
			return accepted[i].score > accepted[j].score
		}
		return accepted[i].weight > accepted[j].weight
	})

	best := accepted[0]
	return &AnchoredValue{
		Value:           best.value,
		Label:           best.label,
		Region:          best.region,
		Score:           best.score,
		ConfidenceBonus: anchoredBonus,
	}, attempts
}
