package sheet

import "strings"

// Discipline prefix tables. Two-letter prefixes are checked before
// single letters so FP-101 resolves to Fire Protection, not Food
// Service under F.
var twoLetterDisciplines = map[string]string{
	"FP": "Fire Protection",
	"FA": "Fire Alarm",
	"FS": "Fire Suppression",
	"ID": "Interior Design",
	"LP": "Landscape Planting",
	"EL": "Electrical",
	"ME": "Mechanical",
	"PL": "Plumbing",
	"SD": "Site Development",
	"AV": "Audio Visual",
}

var oneLetterDisciplines = map[string]string{
	"A": "Architectural",
	"S": "Structural",
	"M": "Mechanical",
	"E": "Electrical",
	"P": "Plumbing",
	"C": "Civil",
	"L": "Landscape",
	"G": "General",
	"T": "Telecommunications",
	"F": "Fire Protection",
	"Q": "Equipment",
	"I": "Interiors",
}

// Title keywords used when no sheet-number prefix resolves.
var disciplineKeywords = []struct {
	keyword    string
	discipline string
}{
	{"MECHANICAL", "Mechanical"},
	{"ELECTRICAL", "Electrical"},
	{"PLUMBING", "Plumbing"},
	{"STRUCTURAL", "Structural"},
	{"ARCHITECTURAL", "Architectural"},
	{"CIVIL", "Civil"},
	{"LANDSCAPE", "Landscape"},
	{"FIRE PROTECTION", "Fire Protection"},
	{"FIRE ALARM", "Fire Alarm"},
	{"INTERIOR", "Interior Design"},
	{"TELECOM", "Telecommunications"},
}

// InferDiscipline resolves a discipline name from the sheet-number
// prefix, falling back to title keyword scanning when there is no
// number or the prefix is unrecognized. Returns "" when nothing
// matches.
func InferDiscipline(sheetNumber, sheetTitle string) string {
	num := strings.ToUpper(strings.TrimSpace(sheetNumber))
	if len(num) >= 2 {
		if d, ok := twoLetterDisciplines[num[:2]]; ok {
			return d
		}
	}
	if len(num) >= 1 {
		if d, ok := oneLetterDisciplines[num[:1]]; ok {
			return d
		}
	}

	title := strings.ToUpper(sheetTitle)
	for _, entry := range disciplineKeywords {
		if strings.Contains(title, entry.keyword) {
			return entry.discipline
		}
	}
	return ""
}

// Kind is the drawing-kind taxonomy inferred from the title.
type Kind string

const (
	KindPlan     Kind = "plan"
	KindRCP      Kind = "rcp"
	KindSchedule Kind = "schedule"
	KindDetail   Kind = "detail"
	KindLegend   Kind = "legend"
	KindGeneral  Kind = "general"
	KindUnknown  Kind = "unknown"
)

// kindRules are checked in order; the first match wins. A title can
// contain several keywords ("DOOR SCHEDULE - FLOOR PLAN NOTES"), so
// the ordering is load-bearing: SCHEDULE outranks PLAN, and RCP is
// checked before PLAN because every RCP title also contains "PLAN".
var kindRules = []struct {
	keyword string
	kind    Kind
}{
	{"REFLECTED CEILING", KindRCP},
	{"RCP", KindRCP},
	{"SCHEDULE", KindSchedule},
	{"LEGEND", KindLegend},
	{"DETAIL", KindDetail},
	{"GENERAL NOTES", KindGeneral},
	{"SHEET INDEX", KindGeneral},
	{"COVER", KindGeneral},
	{"PLAN", KindPlan},
}

// InferKind maps a sheet title onto the drawing-kind taxonomy.
func InferKind(sheetTitle string) Kind {
	title := strings.ToUpper(sheetTitle)
	if strings.TrimSpace(title) == "" {
		return KindUnknown
	}
	for _, rule := range kindRules {
		if strings.Contains(title, rule.keyword) {
			return rule.kind
		}
	}
	return KindUnknown
}
