package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	stencil "github.com/benjaminschreck/go-stencil/pkg/stencil"

	"github.com/hyperifyio/goreport/internal/docmodel"
	"github.com/hyperifyio/goreport/internal/sections"
)

// DefaultTemplateName is the file name of the built-in template.
const DefaultTemplateName = "default_template.docx"

// DocxRenderer fills a DOCX template's {{PLACEHOLDER}} expressions.
type DocxRenderer struct {
	TemplatePath string
}

// Render writes the filled template to outPath.
func (r DocxRenderer) Render(c *Context, outPath string) error {
	tmpl, err := stencil.PrepareFile(r.TemplatePath)
	if err != nil {
		return fmt.Errorf("prepare template %s: %w", filepath.Base(r.TemplatePath), err)
	}
	defer tmpl.Close()

	out, err := tmpl.Render(stencil.TemplateData(c.TemplateData()))
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	data, err := io.ReadAll(out)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// DefaultTemplate is the built-in report layout: a cover block with the
// institution, topic and student, then one heading and placeholder per
// canonical section.
func DefaultTemplate() *docmodel.Document {
	d := &docmodel.Document{}
	add := func(style, text string) {
		d.Paragraphs = append(d.Paragraphs, docmodel.Paragraph{Style: style, Text: text})
	}
	add("Title", "{{COLLEGE_NAME}}")
	add("Heading 1", "{{DEPARTMENT}}")
	add("Normal", "")
	add("Heading 1", "REPORT ON: {{TOPIC}}")
	add("Normal", "")
	add("Normal", "Submitted by:")
	add("Normal", "Name: {{STUDENT_NAME}}")
	add("Normal", "Roll No: {{ROLL_NO}}")
	for _, name := range sections.Canonical {
		title := name
		if name == "Results" {
			title = "Result"
		}
		add("Heading 1", title)
		add("Normal", "{{"+sections.Classify(name).Placeholder()+"}}")
	}
	return d
}

// WriteDefaultTemplate writes DefaultTemplate as a DOCX file.
func WriteDefaultTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return DefaultTemplate().WriteDocxFile(path)
}

// EnsureDefaultTemplate creates dir/default_template.docx when missing and
// returns its path.
func EnsureDefaultTemplate(dir string) (string, error) {
	p := filepath.Join(dir, DefaultTemplateName)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	if err := WriteDefaultTemplate(p); err != nil {
		return "", fmt.Errorf("write default template: %w", err)
	}
	return p, nil
}
