// Package docmodel parses sample documents into a small, format-neutral
// model: paragraphs with runs, tables, page sections and header/footer text.
package docmodel

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file types no parser handles.
var ErrUnsupportedFormat = errors.New("docmodel: unsupported document format")

// Run is a span of text with uniform direct formatting. Zero values mean
// "not set directly" and inherit from the style.
type Run struct {
	Text      string
	Font      string
	Size      float64 // points
	Color     string  // RRGGBB
	Bold      bool
	Italic    bool
	Underline bool
}

// Paragraph is one block of text.
type Paragraph struct {
	Text        string
	Alignment   string  // left, center, right, justify, distribute or ""
	SpaceBefore float64 // points
	SpaceAfter  float64 // points
	// LineSpacing is a multiple for auto spacing or points for exact spacing.
	LineSpacing float64
	Style       string
	Runs        []Run
}

// Cell is a table cell.
type Cell struct {
	Paragraphs []Paragraph
}

// Table is a grid of cells.
type Table struct {
	Rows [][]Cell
}

// PageSection holds page geometry in points.
type PageSection struct {
	Orientation  string
	Width        float64
	Height       float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
}

// Document is the parsed form of a sample. Header and Footer hold the
// paragraphs of the first section's default header and footer.
type Document struct {
	Paragraphs []Paragraph
	Tables     []Table
	Sections   []PageSection
	Header     []Paragraph
	Footer     []Paragraph
}

// CellParagraphs returns every paragraph inside tables, row by row.
func (d *Document) CellParagraphs() []Paragraph {
	var out []Paragraph
	for _, t := range d.Tables {
		for _, row := range t.Rows {
			for _, c := range row {
				out = append(out, c.Paragraphs...)
			}
		}
	}
	return out
}

// ParseFile dispatches on the file extension.
func ParseFile(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return ParseDocxFile(path)
	case ".html", ".htm":
		return ParseHTMLFile(path)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
}

func joinRuns(runs []Run) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}
