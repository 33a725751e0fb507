package docmodel

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const wNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// A4 portrait with one inch margins, in points.
var defaultPage = PageSection{
	Orientation: "portrait",
	Width:       595.3,
	Height:      841.9,
	MarginTop:   72, MarginBottom: 72, MarginLeft: 72, MarginRight: 72,
}

// WriteDocxFile writes d as a minimal WordprocessingML package.
func (d *Document) WriteDocxFile(p string) (err error) {
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return d.WriteDocx(f)
}

// WriteDocx emits paragraphs followed by tables, the first page section,
// and the default header and footer. Styles referenced by paragraphs are
// declared in styles.xml.
func (d *Document) WriteDocx(w io.Writer) error {
	zw := zip.NewWriter(w)
	page := defaultPage
	if len(d.Sections) > 0 {
		page = d.Sections[0]
	}
	rels := []string{`<Relationship Id="rIdStyles" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`}
	overrides := []string{
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`,
		`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`,
	}
	var refs strings.Builder
	if len(d.Header) > 0 {
		rels = append(rels, `<Relationship Id="rIdHeader" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>`)
		overrides = append(overrides, `<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>`)
		refs.WriteString(`<w:headerReference w:type="default" r:id="rIdHeader"/>`)
	}
	if len(d.Footer) > 0 {
		rels = append(rels, `<Relationship Id="rIdFooter" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="footer1.xml"/>`)
		overrides = append(overrides, `<Override PartName="/word/footer1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>`)
		refs.WriteString(`<w:footerReference w:type="default" r:id="rIdFooter"/>`)
	}

	files := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			strings.Join(overrides, "") + `</Types>`},
		{"_rels/.rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
			`</Relationships>`},
		{"word/_rels/document.xml.rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			strings.Join(rels, "") + `</Relationships>`},
		{"word/styles.xml", d.stylesXML()},
		{"word/document.xml", d.documentXML(page, refs.String())},
	}
	if len(d.Header) > 0 {
		files = append(files, struct{ name, body string }{"word/header1.xml", partXML("hdr", d.Header)})
	}
	if len(d.Footer) > 0 {
		files = append(files, struct{ name, body string }{"word/footer1.xml", partXML("ftr", d.Footer)})
	}
	for _, f := range files {
		fw, err := zw.Create(f.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", f.name, err)
		}
		if _, err := io.WriteString(fw, xml.Header+f.body); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return zw.Close()
}

func (d *Document) documentXML(page PageSection, refs string) string {
	var b strings.Builder
	b.WriteString(`<w:document xmlns:w="` + wNS + `" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>`)
	for _, p := range d.Paragraphs {
		writeParagraph(&b, p)
	}
	for _, t := range d.Tables {
		b.WriteString(`<w:tbl>`)
		for _, row := range t.Rows {
			b.WriteString(`<w:tr>`)
			for _, c := range row {
				b.WriteString(`<w:tc>`)
				if len(c.Paragraphs) == 0 {
					b.WriteString(`<w:p/>`)
				}
				for _, p := range c.Paragraphs {
					writeParagraph(&b, p)
				}
				b.WriteString(`</w:tc>`)
			}
			b.WriteString(`</w:tr>`)
		}
		b.WriteString(`</w:tbl>`)
	}
	b.WriteString(`<w:sectPr>` + refs)
	fmt.Fprintf(&b, `<w:pgSz w:w="%s" w:h="%s"`, twips(page.Width), twips(page.Height))
	if page.Orientation == "landscape" {
		b.WriteString(` w:orient="landscape"`)
	}
	fmt.Fprintf(&b, `/><w:pgMar w:top="%s" w:bottom="%s" w:left="%s" w:right="%s"/>`,
		twips(page.MarginTop), twips(page.MarginBottom), twips(page.MarginLeft), twips(page.MarginRight))
	b.WriteString(`</w:sectPr></w:body></w:document>`)
	return b.String()
}

func partXML(root string, paras []Paragraph) string {
	var b strings.Builder
	b.WriteString(`<w:` + root + ` xmlns:w="` + wNS + `">`)
	for _, p := range paras {
		writeParagraph(&b, p)
	}
	b.WriteString(`</w:` + root + `>`)
	return b.String()
}

func writeParagraph(b *strings.Builder, p Paragraph) {
	b.WriteString(`<w:p><w:pPr>`)
	if p.Style != "" {
		fmt.Fprintf(b, `<w:pStyle w:val="%s"/>`, escape(styleID(p.Style)))
	}
	if p.SpaceBefore != 0 || p.SpaceAfter != 0 || p.LineSpacing != 0 {
		b.WriteString(`<w:spacing`)
		if p.SpaceBefore != 0 {
			fmt.Fprintf(b, ` w:before="%s"`, twips(p.SpaceBefore))
		}
		if p.SpaceAfter != 0 {
			fmt.Fprintf(b, ` w:after="%s"`, twips(p.SpaceAfter))
		}
		if p.LineSpacing != 0 {
			fmt.Fprintf(b, ` w:line="%d" w:lineRule="auto"`, int(p.LineSpacing*240))
		}
		b.WriteString(`/>`)
	}
	if jc := jcValue(p.Alignment); jc != "" {
		fmt.Fprintf(b, `<w:jc w:val="%s"/>`, jc)
	}
	b.WriteString(`</w:pPr>`)
	runs := p.Runs
	if len(runs) == 0 && p.Text != "" {
		runs = []Run{{Text: p.Text}}
	}
	for _, r := range runs {
		b.WriteString(`<w:r><w:rPr>`)
		if r.Font != "" {
			fmt.Fprintf(b, `<w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s"/>`, escape(r.Font))
		}
		if r.Bold {
			b.WriteString(`<w:b/>`)
		}
		if r.Italic {
			b.WriteString(`<w:i/>`)
		}
		if r.Underline {
			b.WriteString(`<w:u w:val="single"/>`)
		}
		if r.Color != "" {
			fmt.Fprintf(b, `<w:color w:val="%s"/>`, escape(r.Color))
		}
		if r.Size != 0 {
			fmt.Fprintf(b, `<w:sz w:val="%d"/>`, int(r.Size*2))
		}
		b.WriteString(`</w:rPr>`)
		for i, line := range strings.Split(r.Text, "\n") {
			if i > 0 {
				b.WriteString(`<w:br/>`)
			}
			fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t>`, escape(line))
		}
		b.WriteString(`</w:r>`)
	}
	b.WriteString(`</w:p>`)
}

func (d *Document) stylesXML() string {
	seen := map[string]bool{"Normal": true}
	names := []string{"Normal"}
	add := func(ps []Paragraph) {
		for _, p := range ps {
			if p.Style != "" && !seen[p.Style] {
				seen[p.Style] = true
				names = append(names, p.Style)
			}
		}
	}
	add(d.Paragraphs)
	add(d.CellParagraphs())
	add(d.Header)
	add(d.Footer)

	var b strings.Builder
	b.WriteString(`<w:styles xmlns:w="` + wNS + `">`)
	for _, n := range names {
		def := ""
		if n == "Normal" {
			def = ` w:default="1"`
		}
		fmt.Fprintf(&b, `<w:style w:type="paragraph"%s w:styleId="%s"><w:name w:val="%s"/>`, def, escape(styleID(n)), escape(n))
		if lvl, ok := strings.CutPrefix(n, "Heading "); ok {
			size := 32
			if l, err := strconv.Atoi(lvl); err == nil && l > 1 {
				size = 28
			}
			fmt.Fprintf(&b, `<w:basedOn w:val="Normal"/><w:rPr><w:b/><w:sz w:val="%d"/></w:rPr>`, size)
		}
		b.WriteString(`</w:style>`)
	}
	b.WriteString(`</w:styles>`)
	return b.String()
}

func styleID(name string) string {
	return strings.ReplaceAll(name, " ", "")
}

func jcValue(a string) string {
	switch a {
	case "left", "center", "right", "distribute":
		return a
	case "justify":
		return "both"
	}
	return ""
}

func twips(pt float64) string {
	return strconv.Itoa(int(pt*20 + 0.5))
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
