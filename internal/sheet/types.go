// Package sheet implements geometric sheet-identity extraction for
// construction drawing pages: label detection, anchored region search,
// candidate validation, discipline/kind inference, and the confidence
// gate that routes each extracted sheet record.
package sheet

// TextItem is a single span from a page's vector text layer, in PDF
// coordinate space (origin bottom-left, units of 1/72 inch).
type TextItem struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Viewport carries the page geometry needed to map PDF coordinates
// into render-pixel space. Scale is render DPI divided by 72.
type Viewport struct {
	Width  float64
	Height float64
	Scale  float64
}

// PixelRect is a bounding box in render-pixel space (origin top-left).
type PixelRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Point is a location in render-pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LabelType classifies a detected label phrase.
type LabelType string

const (
	LabelNumber   LabelType = "number"
	LabelTitle    LabelType = "title"
	LabelModerate LabelType = "moderate"
)

// Label weights. Strong lexicon phrases score 3, the bare ambiguous
// "TITLE" token scores 2.
const (
	WeightStrong   = 3
	WeightModerate = 2
)

// LabelHit is one detected label occurrence on a page.
type LabelHit struct {
	Text   string    `json:"text"`
	Type   LabelType `json:"label_type"`
	Weight int       `json:"weight"`
	BBox   PixelRect `json:"bbox"`
	Center Point     `json:"center"`
}

// RegionType names the two anchored search placements.
type RegionType string

const (
	RegionRightOf RegionType = "right_of"
	RegionBelow   RegionType = "below"
)

// SearchRegion is a candidate search area derived from a label hit.
type SearchRegion struct {
	Type RegionType
	BBox PixelRect
}

// RegionAttempt records one anchored search attempt adjacent to a label.
// Attempts are recorded whether or not they produced a value; the full
// set is the evidence trail consumed by review tooling.
type RegionAttempt struct {
	Region          RegionType `json:"region_type"`
	LabelUsed       string     `json:"label_used"`
	BBox            PixelRect  `json:"bbox"`
	Candidates      []string   `json:"candidates"`
	Chosen          string     `json:"chosen,omitempty"`
	Pass            bool       `json:"pass"`
	RejectionReason Reject     `json:"rejection_reason,omitempty"`
}

// Source identifies how a sheet's identity was extracted. The anchored
// and heuristic vector paths are distinguished internally because they
// carry different confidence bases; both persist as "vector_text".
type Source string

const (
	SourceVectorAnchored  Source = "vector_anchored"
	SourceVectorHeuristic Source = "vector_heuristic"
	SourceOCRCrop         Source = "ocr_crop"
	SourceVisionCrop      Source = "vision_crop"
	SourceVisionFull      Source = "vision_full"
	SourceFailCrop        Source = "fail_crop"
	SourceUnknown         Source = "unknown"
)

// Persisted returns the extraction_source value stored on sheet rows.
func (s Source) Persisted() string {
	switch s {
	case SourceVectorAnchored, SourceVectorHeuristic:
		return "vector_text"
	case SourceVisionCrop, SourceVisionFull:
		return "vision_titleblock"
	case SourceOCRCrop:
		return "ocr_crop"
	case SourceFailCrop:
		return "fail_crop"
	default:
		return "unknown"
	}
}

// Reject tags why a candidate string failed validation.
type Reject string

const (
	RejectNone                 Reject = ""
	RejectLabelPrefixOnly      Reject = "label_prefix_only"
	RejectScaleJunk            Reject = "scale_junk"
	RejectStampJunk            Reject = "stamp_junk"
	RejectTooShort             Reject = "too_short"
	RejectInvalidNumberPattern Reject = "invalid_number_pattern"
	RejectTooLong              Reject = "too_long"
	RejectInsufficientLetters  Reject = "insufficient_letters"
	RejectBoilerplate          Reject = "boilerplate"
	RejectOther                Reject = "other"
)

// NumberCheck is the outcome of sheet-number validation.
type NumberCheck struct {
	Valid           bool
	Value           string
	Priority        int
	RejectionReason Reject
}

// TitleCheck is the outcome of sheet-title validation.
type TitleCheck struct {
	Valid               bool
	Value               string
	Score               int
	TruncationSuspected bool
	RejectionReason     Reject
}

// Clean reports whether the title passed with no ambiguity flags.
func (t TitleCheck) Clean() bool {
	return t.Valid && !t.TruncationSuspected
}

// AnchoredValue is the winning candidate from anchored extraction.
type AnchoredValue struct {
	Value           string
	Label           string
	Region          RegionType
	Priority        int
	Score           int
	ConfidenceBonus float64
}
