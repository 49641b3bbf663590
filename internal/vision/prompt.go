package vision

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// SystemPrompt returns the system prompt for title-block extraction.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt for a title-block crop.
func UserPrompt(pageNumber int, numberHint string) string {
	var buf bytes.Buffer
	data := struct {
		PageNumber int
		NumberHint string
	}{PageNumber: pageNumber, NumberHint: numberHint}
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}
