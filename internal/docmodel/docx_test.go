package docmodel

import (
	"archive/zip"
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func sampleDoc() *Document {
	return &Document{
		Paragraphs: []Paragraph{
			{Style: "Title", Alignment: "center", Runs: []Run{{Text: "{{TITLE}}", Font: "Times New Roman", Size: 16, Bold: true}}},
			{Style: "Heading 1", Runs: []Run{{Text: "Introduction"}}},
			{Style: "Normal", Alignment: "justify", SpaceBefore: 6, SpaceAfter: 12, LineSpacing: 1.5,
				Runs: []Run{{Text: "{{INTRODUCTION}}", Font: "Arial", Size: 12, Italic: true, Color: "1F3864"}}},
		},
		Tables: []Table{{Rows: [][]Cell{{
			{Paragraphs: []Paragraph{{Text: "Name"}}},
			{Paragraphs: []Paragraph{{Text: "{{STUDENT_NAME}}"}}},
		}}}},
		Sections: []PageSection{{Orientation: "landscape", Width: 841.9, Height: 595.3, MarginTop: 36, MarginBottom: 36, MarginLeft: 54, MarginRight: 54}},
		Header:   []Paragraph{{Text: "{{COLLEGE_NAME}}"}},
		Footer:   []Paragraph{{Text: "Page footer"}},
	}
}

func TestDocxRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleDoc().WriteDocx(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ParseDocx(buf.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Paragraphs) != 3 {
		t.Fatalf("paragraphs: got %d", len(got.Paragraphs))
	}
	title := got.Paragraphs[0]
	if title.Text != "{{TITLE}}" || title.Style != "Title" || title.Alignment != "center" {
		t.Fatalf("title paragraph: %+v", title)
	}
	if r := title.Runs[0]; r.Font != "Times New Roman" || r.Size != 16 || !r.Bold || r.Italic {
		t.Fatalf("title run: %+v", r)
	}
	if got.Paragraphs[1].Style != "Heading 1" {
		t.Fatalf("heading style: %q", got.Paragraphs[1].Style)
	}
	body := got.Paragraphs[2]
	if body.Alignment != "justify" || body.SpaceBefore != 6 || body.SpaceAfter != 12 || body.LineSpacing != 1.5 {
		t.Fatalf("body paragraph: %+v", body)
	}
	if r := body.Runs[0]; r.Color != "1F3864" || !r.Italic || r.Size != 12 {
		t.Fatalf("body run: %+v", r)
	}
	if len(got.Tables) != 1 || got.Tables[0].Rows[0][1].Paragraphs[0].Text != "{{STUDENT_NAME}}" {
		t.Fatalf("tables: %+v", got.Tables)
	}
	if len(got.Sections) != 1 {
		t.Fatalf("sections: %+v", got.Sections)
	}
	s := got.Sections[0]
	if s.Orientation != "landscape" || s.Width != 841.9 || s.MarginLeft != 54 {
		t.Fatalf("section: %+v", s)
	}
	if len(got.Header) != 1 || got.Header[0].Text != "{{COLLEGE_NAME}}" {
		t.Fatalf("header: %+v", got.Header)
	}
	if len(got.Footer) != 1 || got.Footer[0].Text != "Page footer" {
		t.Fatalf("footer: %+v", got.Footer)
	}
}

func TestParseDocx_RunsInsideHyperlinksKeepOrder(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>See </w:t></w:r><w:hyperlink><w:r><w:t>{{REF</w:t></w:r></w:hyperlink><w:r><w:t>ERENCES}}</w:t></w:r><w:r><w:tab/><w:t>end</w:t></w:r></w:p>
<w:p><w:r><w:rPr><w:b w:val="0"/><w:u w:val="none"/><w:color w:val="auto"/></w:rPr><w:t>plain</w:t></w:r></w:p>
</w:body></w:document>`
	got, err := ParseDocx(zipOf(t, map[string]string{"word/document.xml": doc}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Paragraphs[0].Text != "See {{REFERENCES}}\tend" {
		t.Fatalf("text: %q", got.Paragraphs[0].Text)
	}
	if got.Paragraphs[0].Style != "Normal" {
		t.Fatalf("unstyled paragraphs resolve to Normal, got %q", got.Paragraphs[0].Style)
	}
	r := got.Paragraphs[1].Runs[0]
	if r.Bold || r.Underline || r.Color != "" {
		t.Fatalf("explicit off toggles: %+v", r)
	}
	if len(got.Sections) != 0 || got.Header != nil {
		t.Fatalf("no sectPr means no sections: %+v", got.Sections)
	}
}

func TestParseDocx_MissingMainPart(t *testing.T) {
	_, err := ParseDocx(zipOf(t, map[string]string{"other.xml": "<a/>"}))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
	if _, err := ParseDocx([]byte("not a zip")); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

func TestParseFile_Dispatch(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sample.docx")
	if err := sampleDoc().WriteDocxFile(p); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err := ParseFile(p)
	if err != nil || len(d.Paragraphs) != 3 {
		t.Fatalf("ParseFile docx: %v %+v", err, d)
	}
	if _, err := ParseFile(filepath.Join(dir, "sample.pdf")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("pdf: want ErrUnsupportedFormat, got %v", err)
	}
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
