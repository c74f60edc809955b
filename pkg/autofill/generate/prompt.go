package generate

import (
	"strings"
	"text/template"
)

// PromptInput is the data interpolated into the prompt template.
type PromptInput struct {
	// Title is the page title, when known.
	Title        string
	Instructions string
	Fields       string
}

const promptTemplate = `You are a form-filling assistant. You receive the fields of an HTML form and must propose a value for each one.

Return a single JSON object mapping field identifiers to values, inside a fenced code block, with no extra prose.
- Use the field's name attribute as its identifier, else its id, else its label.
- Use "true" or "false" for checkboxes and radio buttons.
- For select fields, use one of the listed options.
- Leave out submit buttons.
{{- if .Title}}

Page title: {{.Title}}
{{- end}}

User instructions:
{{if .Instructions}}{{.Instructions}}{{else}}Fill the form with realistic, consistent sample data.{{end}}

Form fields:
{{.Fields}}`

var prompt = template.Must(template.New("prompt").Parse(promptTemplate))

// BuildPrompt renders the fixed instruction template.
func BuildPrompt(in PromptInput) string {
	in.Title = strings.TrimSpace(in.Title)
	in.Instructions = strings.TrimSpace(in.Instructions)

	var b strings.Builder
	// The template has no failing actions; an error here is a programming bug.
	if err := prompt.Execute(&b, in); err != nil {
		panic(err)
	}
	return b.String()
}
