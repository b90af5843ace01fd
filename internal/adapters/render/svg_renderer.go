package render

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"text/template"
	"unicode/utf8"

	"eventcertificates/internal/domain"
)

// bareField matches {{ name }} placeholders, the syntax certificate templates are authored in.
var bareField = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// keywords are text/template actions that look like bare fields.
var keywords = map[string]bool{
	"end": true, "else": true, "if": true, "range": true, "with": true, "define": true,
	"template": true, "block": true, "break": true, "continue": true, "nil": true,
}

// rewriteFields turns {{ name }} into an index lookup so missing keys render empty.
func rewriteFields(src string) string {
	return bareField.ReplaceAllStringFunc(src, func(m string) string {
		name := bareField.FindStringSubmatch(m)[1]
		if keywords[name] {
			return m
		}
		return `{{index . "` + name + `"}}`
	})
}

type svgRenderer struct{}

// NewSVGRenderer returns a DocumentRenderer for SVG certificate templates.
// Placeholders are written {{ field }}; values are XML escaped and unknown fields render empty.
// Regular text/template actions such as {{ if .extra }} are accepted as well.
func NewSVGRenderer() domain.DocumentRenderer {
	return &svgRenderer{}
}

func (r *svgRenderer) Render(templateText string, data map[string]string) (string, error) {
	if !utf8.ValidString(templateText) {
		return "", errors.New("template is not valid UTF-8")
	}
	t, err := template.New("certificate").Option("missingkey=zero").Parse(rewriteFields(templateText))
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	escaped := make(map[string]string, len(data))
	for k, v := range data {
		escaped[k] = template.HTMLEscapeString(v)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, escaped); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
