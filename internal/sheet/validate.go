package sheet

import (
	"regexp"
	"strings"
	"unicode"
)

// Sheet-number pattern tiers. Priority 3 is the canonical AEC format
// (discipline prefix, separator, 2-4 digit ordinal, optional decimal
// suffix); lower tiers are progressively looser fallbacks. Multi-char
// discipline prefixes are listed explicitly because the generic tier's
// prefix class would otherwise swallow trailing noise.
var numberPatterns = []struct {
	re       *regexp.Regexp
	priority int
}{
	{regexp.MustCompile(`^[A-Z]{1,3}[-.]?\d{2,4}(\.\d{1,2})?$`), 3},
	{regexp.MustCompile(`^(FP|FA|FS|ID|LP|EL|ME|PL|SD)[-.]?\d{1,4}(\.\d{1,2})?[A-Z]?$`), 3},
	{regexp.MustCompile(`^[A-Z]{1,2}[-.]?\d{1,4}[A-Z]?$`), 2},
	{regexp.MustCompile(`^[A-Z]\d{1,2}\.\d{1,2}[A-Z]?$`), 2},
	{regexp.MustCompile(`^\d{1,3}(\.\d{1,2})?$`), 1},
}

// Known non-number junk that shows up near sheet-number labels.
var (
	scaleJunkPattern = regexp.MustCompile(`(?i)(\d\s*/\s*\d+\s*"|\d+\s*"\s*=|=\s*\d+'|scale)`)
	stampJunkPattern = regexp.MustCompile(`(?i)(drawn|checked|approved|designed|date|revision|rev\.|seal|stamp|p\.?e\.?\s|license)`)
)

// ValidateSheetNumber tests a candidate string against the AEC
// sheet-number pattern tiers, rejecting known junk with a tagged reason
// for the evidence trail.
func ValidateSheetNumber(candidate string) NumberCheck {
	value := strings.ToUpper(strings.TrimSpace(candidate))

	if len(value) < 2 {
		return NumberCheck{RejectionReason: RejectTooShort}
	}
	if len(value) > 12 {
		return NumberCheck{RejectionReason: RejectTooLong}
	}
	// A label fragment adjacent to the real label ("SHEET NO", "DWG")
	// is never the value itself.
	if _, _, ok := classifyLabel(value); ok || isLabelFragment(value) {
		return NumberCheck{RejectionReason: RejectLabelPrefixOnly}
	}
	if scaleJunkPattern.MatchString(value) {
		return NumberCheck{RejectionReason: RejectScaleJunk}
	}
	if stampJunkPattern.MatchString(value) {
		return NumberCheck{RejectionReason: RejectStampJunk}
	}

	for _, tier := range numberPatterns {
		if tier.re.MatchString(value) {
			return NumberCheck{Valid: true, Value: value, Priority: tier.priority}
		}
	}
	return NumberCheck{RejectionReason: RejectInvalidNumberPattern}
}

var labelFragmentPattern = regexp.MustCompile(`(?i)^(sheet|drawing|dwg|sht|no|number)[.:#]*$`)

func isLabelFragment(s string) bool {
	return labelFragmentPattern.MatchString(s)
}

// Title-block boilerplate that is never a real sheet title. Matched
// case-insensitively as substrings of the candidate.
var titleBoilerplate = []string{
	"dimensions must be checked",
	"do not scale",
	"drawn by",
	"checked by",
	"approved by",
	"copyright",
	"all rights reserved",
	"this drawing",
	"property of",
	"contractor shall",
	"verify all dimensions",
	"issued for",
	"project no",
	"shall not be reproduced",
}

// AEC title keywords that raise a candidate's score.
var titleKeywords = []string{
	"PLAN", "SCHEDULE", "DETAIL", "SECTION", "ELEVATION",
	"NOTES", "LEGEND", "DIAGRAM", "RISER", "LAYOUT", "INDEX",
}

// Typical-title length band. Titles inside it score higher.
const (
	titleMinLen        = 6
	titleMaxLen        = 80
	titleTypicalMinLen = 8
	titleTypicalMaxLen = 45
	titleMaxWords      = 12
)

// ValidateSheetTitle accepts or rejects a candidate sheet title and
// scores survivors. Length, word count, punctuation density, and the
// boilerplate phrase list gate entry; AEC keywords, uppercase ratio,
// and the typical length band raise the score.
func ValidateSheetTitle(candidate string) TitleCheck {
	value := strings.TrimSpace(candidate)

	if len(value) < titleMinLen {
		return TitleCheck{RejectionReason: RejectTooShort}
	}
	if len(value) > titleMaxLen {
		return TitleCheck{RejectionReason: RejectTooLong}
	}
	if len(strings.Fields(value)) > titleMaxWords {
		return TitleCheck{RejectionReason: RejectTooLong}
	}
	if strings.Count(value, ",") > 2 || strings.Count(value, ".") > 1 {
		return TitleCheck{RejectionReason: RejectOther}
	}

	letters := 0
	upper := 0
	for _, r := range value {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < 4 {
		return TitleCheck{RejectionReason: RejectInsufficientLetters}
	}

	lower := strings.ToLower(value)
	for _, phrase := range titleBoilerplate {
		if strings.Contains(lower, phrase) {
			return TitleCheck{RejectionReason: RejectBoilerplate}
		}
	}

	score := 1
	upperValue := strings.ToUpper(value)
	for _, kw := range titleKeywords {
		if strings.Contains(upperValue, kw) {
			score += 3
			break
		}
	}
	if letters > 0 && float64(upper)/float64(letters) >= 0.7 {
		score += 2
	}
	if len(value) >= titleTypicalMinLen && len(value) <= titleTypicalMaxLen {
		score += 2
	}

	return TitleCheck{
		Valid:               true,
		Value:               value,
		Score:               score,
		TruncationSuspected: truncationSuspected(value),
	}
}

// truncationSuspected flags titles that look cut off: a trailing hyphen
// or open punctuation, a dangling single-letter word, or a candidate
// pressed against the length ceiling.
func truncationSuspected(value string) bool {
	if strings.HasSuffix(value, "-") || strings.HasSuffix(value, ",") ||
		strings.HasSuffix(value, "&") || strings.HasSuffix(value, "/") {
		return true
	}
	if len(value) >= titleMaxLen-2 {
		return true
	}
	fields := strings.Fields(value)
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		if len(last) == 1 && unicode.IsLetter(rune(last[0])) {
			return true
		}
	}
	return false
}
