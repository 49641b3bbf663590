package vision

// Result is the structured guess returned by the vision model for a
// title-block crop. Empty strings mean the model found nothing for
// that field.
type Result struct {
	SheetNumber string `json:"sheet_number"`
	SheetTitle  string `json:"sheet_title"`
}

// ExtractionSchema is the JSON schema for title-block extraction output.
var ExtractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"sheet_number": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Sheet number as printed in the title block (e.g., 'A101', 'FP-1.02'), null if not visible",
		},
		"sheet_title": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Sheet title as printed (e.g., 'FIRST FLOOR PLAN'), null if not visible",
		},
	},
	"required":             []string{"sheet_number", "sheet_title"},
	"additionalProperties": false,
}
