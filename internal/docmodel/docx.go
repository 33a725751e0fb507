package docmodel

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

const maxPartSize = 32 << 20

// ParseDocxFile reads a WordprocessingML package from disk.
func ParseDocxFile(p string) (*Document, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()
	return parseDocx(&zr.Reader)
}

// ParseDocx reads a WordprocessingML package from memory.
func ParseDocx(b []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	return parseDocx(zr)
}

func parseDocx(zr *zip.Reader) (*Document, error) {
	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}
	main, ok := parts["word/document.xml"]
	if !ok {
		return nil, fmt.Errorf("word/document.xml missing: %w", ErrUnsupportedFormat)
	}
	var xd xDocument
	if err := decodePart(main, &xd); err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}

	styles := styleNames{}
	if f, ok := parts["word/styles.xml"]; ok {
		var xs xStyles
		if err := decodePart(f, &xs); err != nil {
			return nil, fmt.Errorf("parse styles.xml: %w", err)
		}
		styles = newStyleNames(xs)
	}

	doc := &Document{}
	var sects []*xSectPr
	for _, p := range xd.Body.Paragraphs {
		doc.Paragraphs = append(doc.Paragraphs, p.convert(styles))
		if p.Props != nil && p.Props.SectPr != nil {
			sects = append(sects, p.Props.SectPr)
		}
	}
	for _, t := range xd.Body.Tables {
		doc.Tables = append(doc.Tables, t.convert(styles))
	}
	if xd.Body.SectPr != nil {
		sects = append(sects, xd.Body.SectPr)
	}
	for _, s := range sects {
		doc.Sections = append(doc.Sections, s.convert())
	}

	if len(sects) > 0 {
		rels := map[string]string{}
		if f, ok := parts["word/_rels/document.xml.rels"]; ok {
			var xr xRelationships
			if err := decodePart(f, &xr); err == nil {
				for _, r := range xr.Items {
					rels[r.ID] = path.Join("word", r.Target)
				}
			}
		}
		first := sects[0]
		doc.Header = readHeaderFooter(parts, rels, first.HeaderRefs, styles)
		doc.Footer = readHeaderFooter(parts, rels, first.FooterRefs, styles)
	}
	return doc, nil
}

func readHeaderFooter(parts map[string]*zip.File, rels map[string]string, refs []xRef, styles styleNames) []Paragraph {
	for _, ref := range refs {
		if ref.Type != "" && ref.Type != "default" {
			continue
		}
		f, ok := parts[rels[ref.ID]]
		if !ok {
			return nil
		}
		var hf xHeaderFooter
		if err := decodePart(f, &hf); err != nil {
			return nil
		}
		out := make([]Paragraph, 0, len(hf.Paragraphs))
		for _, p := range hf.Paragraphs {
			out = append(out, p.convert(styles))
		}
		return out
	}
	return nil
}

func decodePart(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(io.LimitReader(rc, maxPartSize)).Decode(v)
}

// WordprocessingML subset. Tags carry only local names so any namespace
// prefix matches.

type xDocument struct {
	Body xBody `xml:"body"`
}

type xBody struct {
	Paragraphs []xParagraph `xml:"p"`
	Tables     []xTable     `xml:"tbl"`
	SectPr     *xSectPr     `xml:"sectPr"`
}

type xHeaderFooter struct {
	Paragraphs []xParagraph `xml:"p"`
}

type xTable struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []xParagraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

func (t xTable) convert(styles styleNames) Table {
	out := Table{Rows: make([][]Cell, 0, len(t.Rows))}
	for _, r := range t.Rows {
		row := make([]Cell, 0, len(r.Cells))
		for _, c := range r.Cells {
			cell := Cell{}
			for _, p := range c.Paragraphs {
				cell.Paragraphs = append(cell.Paragraphs, p.convert(styles))
			}
			row = append(row, cell)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

type xVal struct {
	Val string `xml:"val,attr"`
}

// on reports a toggle property: present without val, or val not false.
func (v *xVal) on() bool {
	if v == nil {
		return false
	}
	switch strings.ToLower(v.Val) {
	case "0", "false", "off", "none":
		return false
	}
	return true
}

type xPPr struct {
	Style   *xVal `xml:"pStyle"`
	Jc      *xVal `xml:"jc"`
	Spacing *struct {
		Before   string `xml:"before,attr"`
		After    string `xml:"after,attr"`
		Line     string `xml:"line,attr"`
		LineRule string `xml:"lineRule,attr"`
	} `xml:"spacing"`
	SectPr *xSectPr `xml:"sectPr"`
}

type xRPr struct {
	Fonts *struct {
		ASCII string `xml:"ascii,attr"`
		HAnsi string `xml:"hAnsi,attr"`
	} `xml:"rFonts"`
	B     *xVal `xml:"b"`
	I     *xVal `xml:"i"`
	U     *xVal `xml:"u"`
	Sz    *xVal `xml:"sz"`
	Color *xVal `xml:"color"`
}

type xRun struct {
	Props *xRPr
	Text  strings.Builder
}

// UnmarshalXML keeps text, tabs and breaks in document order.
func (r *xRun) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				var pr xRPr
				if err := d.DecodeElement(&pr, &t); err != nil {
					return err
				}
				r.Props = &pr
			case "t", "delText":
				var s string
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				if t.Name.Local == "t" {
					r.Text.WriteString(s)
				}
			case "tab":
				r.Text.WriteByte('\t')
				if err := d.Skip(); err != nil {
					return err
				}
			case "br", "cr":
				r.Text.WriteByte('\n')
				if err := d.Skip(); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type xParagraph struct {
	Props *xPPr
	Runs  []*xRun
}

// containers whose runs belong to the enclosing paragraph.
var runContainers = map[string]bool{
	"hyperlink": true, "ins": true, "smartTag": true, "fldSimple": true,
	"customXml": true, "sdt": true, "sdtContent": true,
}

// UnmarshalXML collects runs in order, including runs nested in hyperlinks
// and tracked insertions.
func (p *xParagraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "pPr" && depth == 0:
				var pr xPPr
				if err := d.DecodeElement(&pr, &t); err != nil {
					return err
				}
				p.Props = &pr
			case t.Name.Local == "r":
				r := &xRun{}
				if err := d.DecodeElement(r, &t); err != nil {
					return err
				}
				p.Runs = append(p.Runs, r)
			case runContainers[t.Name.Local]:
				depth++
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func (p *xParagraph) convert(styles styleNames) Paragraph {
	out := Paragraph{Style: styles.defaultName()}
	if pr := p.Props; pr != nil {
		if pr.Style != nil && pr.Style.Val != "" {
			out.Style = styles.name(pr.Style.Val)
		}
		if pr.Jc != nil {
			out.Alignment = alignment(pr.Jc.Val)
		}
		if sp := pr.Spacing; sp != nil {
			out.SpaceBefore = twipsToPt(sp.Before)
			out.SpaceAfter = twipsToPt(sp.After)
			if sp.Line != "" {
				if sp.LineRule == "" || sp.LineRule == "auto" {
					out.LineSpacing = atof(sp.Line) / 240
				} else {
					out.LineSpacing = twipsToPt(sp.Line)
				}
			}
		}
	}
	for _, r := range p.Runs {
		run := Run{Text: r.Text.String()}
		if rp := r.Props; rp != nil {
			if rp.Fonts != nil {
				run.Font = rp.Fonts.ASCII
				if run.Font == "" {
					run.Font = rp.Fonts.HAnsi
				}
			}
			run.Bold = rp.B.on()
			run.Italic = rp.I.on()
			run.Underline = rp.U.on()
			if rp.Sz != nil {
				run.Size = atof(rp.Sz.Val) / 2
			}
			if rp.Color != nil && !strings.EqualFold(rp.Color.Val, "auto") {
				run.Color = strings.ToUpper(rp.Color.Val)
			}
		}
		out.Runs = append(out.Runs, run)
	}
	out.Text = joinRuns(out.Runs)
	return out
}

type xRef struct {
	Type string `xml:"type,attr"`
	ID   string `xml:"id,attr"`
}

type xSectPr struct {
	PgSz *struct {
		W      string `xml:"w,attr"`
		H      string `xml:"h,attr"`
		Orient string `xml:"orient,attr"`
	} `xml:"pgSz"`
	PgMar *struct {
		Top    string `xml:"top,attr"`
		Bottom string `xml:"bottom,attr"`
		Left   string `xml:"left,attr"`
		Right  string `xml:"right,attr"`
	} `xml:"pgMar"`
	HeaderRefs []xRef `xml:"headerReference"`
	FooterRefs []xRef `xml:"footerReference"`
}

func (s *xSectPr) convert() PageSection {
	ps := PageSection{Orientation: "portrait"}
	if s.PgSz != nil {
		ps.Width = twipsToPt(s.PgSz.W)
		ps.Height = twipsToPt(s.PgSz.H)
		if s.PgSz.Orient == "landscape" {
			ps.Orientation = "landscape"
		}
	}
	if s.PgMar != nil {
		ps.MarginTop = twipsToPt(s.PgMar.Top)
		ps.MarginBottom = twipsToPt(s.PgMar.Bottom)
		ps.MarginLeft = twipsToPt(s.PgMar.Left)
		ps.MarginRight = twipsToPt(s.PgMar.Right)
	}
	return ps
}

type xStyles struct {
	Items []struct {
		Type    string `xml:"type,attr"`
		ID      string `xml:"styleId,attr"`
		Default string `xml:"default,attr"`
		Name    xVal   `xml:"name"`
	} `xml:"style"`
}

type styleNames struct {
	byID map[string]string
	def  string
}

func newStyleNames(xs xStyles) styleNames {
	s := styleNames{byID: make(map[string]string, len(xs.Items))}
	for _, it := range xs.Items {
		name := it.Name.Val
		if name == "" {
			name = it.ID
		}
		s.byID[it.ID] = builtinName(name)
		if it.Type == "paragraph" && (it.Default == "1" || it.Default == "true") {
			s.def = builtinName(name)
		}
	}
	return s
}

// builtinName maps the lower-case names Word stores for built-in styles to
// their display form, e.g. "heading 1" to "Heading 1".
func builtinName(n string) string {
	if n == "" {
		return n
	}
	lower := strings.ToLower(n)
	if strings.HasPrefix(lower, "heading ") || lower == "normal" || lower == "title" {
		return strings.ToUpper(n[:1]) + n[1:]
	}
	return n
}

func (s styleNames) name(id string) string {
	if n, ok := s.byID[id]; ok {
		return n
	}
	return id
}

func (s styleNames) defaultName() string {
	if s.def != "" {
		return s.def
	}
	return "Normal"
}

type xRelationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func alignment(v string) string {
	switch v {
	case "left", "start":
		return "left"
	case "center":
		return "center"
	case "right", "end":
		return "right"
	case "both":
		return "justify"
	case "distribute":
		return "distribute"
	}
	return ""
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func twipsToPt(s string) float64 {
	return atof(s) / 20
}
