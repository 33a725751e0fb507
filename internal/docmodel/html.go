package docmodel

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ParseHTMLFile reads an HTML sample from disk.
func ParseHTMLFile(p string) (*Document, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	return ParseHTML(b)
}

// ParseHTML maps block elements to paragraphs. Headings get the style
// "Heading N", list items "List Paragraph" and everything else "Normal".
// Inline b/strong, i/em, u and style attributes become run formatting.
// <header> and <footer> fill the document header and footer; tables are
// collected separately.
func ParseHTML(input []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	body := findFirst(root, "body")
	if body == nil {
		body = root
	}
	w := &htmlWalker{doc: &Document{}}
	w.target = &w.doc.Paragraphs
	w.walk(body, Run{})
	w.flush()
	return w.doc, nil
}

type htmlWalker struct {
	doc    *Document
	target *[]Paragraph
	cur    *Paragraph
}

func (w *htmlWalker) open(style string, n *html.Node) {
	w.flush()
	w.cur = &Paragraph{Style: style, Alignment: alignFromNode(n)}
}

func (w *htmlWalker) flush() {
	if w.cur == nil {
		return
	}
	p := *w.cur
	w.cur = nil
	p.Text = collapseSpaces(strings.TrimSpace(joinRuns(p.Runs)))
	if p.Text == "" {
		return
	}
	*w.target = append(*w.target, p)
}

func (w *htmlWalker) text(s string, fmtRun Run) {
	if strings.TrimSpace(s) == "" && w.cur == nil {
		return
	}
	if w.cur == nil {
		w.cur = &Paragraph{Style: "Normal"}
	}
	fmtRun.Text = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(s)
	w.cur.Runs = append(w.cur.Runs, fmtRun)
}

func (w *htmlWalker) walk(n *html.Node, inherited Run) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data, inherited)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c, inherited)
		}
		return
	}

	name := strings.ToLower(n.Data)
	switch name {
	case "script", "style", "noscript", "nav", "iframe", "template":
		return
	case "header", "footer":
		w.flush()
		saved := w.target
		if name == "header" {
			w.target = &w.doc.Header
		} else {
			w.target = &w.doc.Footer
		}
		w.children(n, inherited)
		w.flush()
		w.target = saved
		return
	case "table":
		w.flush()
		w.doc.Tables = append(w.doc.Tables, w.table(n, inherited))
		return
	case "br":
		if w.cur != nil {
			w.cur.Runs = append(w.cur.Runs, Run{Text: " "})
		}
		return
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.open("Heading "+name[1:], n)
		w.children(n, applyInline(name, n, inherited))
		w.flush()
		return
	case "p", "pre", "blockquote":
		w.open("Normal", n)
		w.children(n, applyInline(name, n, inherited))
		w.flush()
		return
	case "li":
		w.open("List Paragraph", n)
		w.children(n, applyInline(name, n, inherited))
		w.flush()
		return
	case "div", "section", "article", "main", "ul", "ol":
		w.flush()
		w.children(n, applyInline(name, n, inherited))
		w.flush()
		return
	}
	w.children(n, applyInline(name, n, inherited))
}

func (w *htmlWalker) children(n *html.Node, r Run) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, r)
	}
}

func (w *htmlWalker) table(n *html.Node, inherited Run) Table {
	var t Table
	var rows func(*html.Node)
	rows = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch strings.ToLower(c.Data) {
			case "tr":
				var row []Cell
				for td := c.FirstChild; td != nil; td = td.NextSibling {
					if td.Type != html.ElementNode || (td.Data != "td" && td.Data != "th") {
						continue
					}
					sub := &htmlWalker{doc: w.doc}
					var paras []Paragraph
					sub.target = &paras
					sub.children(td, applyInline(td.Data, td, inherited))
					sub.flush()
					row = append(row, Cell{Paragraphs: paras})
				}
				t.Rows = append(t.Rows, row)
			case "thead", "tbody", "tfoot":
				rows(c)
			}
		}
	}
	rows(n)
	return t
}

func applyInline(tag string, n *html.Node, r Run) Run {
	switch tag {
	case "b", "strong", "th":
		r.Bold = true
	case "i", "em":
		r.Italic = true
	case "u", "ins":
		r.Underline = true
	}
	for k, v := range styleAttr(n) {
		switch k {
		case "font-family":
			r.Font = strings.Trim(strings.TrimSpace(strings.Split(v, ",")[0]), `"'`)
		case "font-size":
			if pt, ok := cssPoints(v); ok {
				r.Size = pt
			}
		case "color":
			if strings.HasPrefix(v, "#") && len(v) == 7 {
				r.Color = strings.ToUpper(v[1:])
			}
		case "font-weight":
			r.Bold = v == "bold" || v == "700" || v == "800" || v == "900"
		case "font-style":
			r.Italic = v == "italic"
		case "text-decoration":
			r.Underline = strings.Contains(v, "underline")
		}
	}
	return r
}

func alignFromNode(n *html.Node) string {
	if v, ok := styleAttr(n)["text-align"]; ok {
		return alignment(v)
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "align") {
			return alignment(strings.ToLower(a.Val))
		}
	}
	return ""
}

func styleAttr(n *html.Node) map[string]string {
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, "style") {
			continue
		}
		out := map[string]string{}
		for _, decl := range strings.Split(a.Val, ";") {
			k, v, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
		}
		return out
	}
	return nil
}

// cssPoints converts pt and px lengths to points.
func cssPoints(v string) (float64, bool) {
	var unit string
	switch {
	case strings.HasSuffix(v, "pt"):
		unit = "pt"
	case strings.HasSuffix(v, "px"):
		unit = "px"
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, unit)), 64)
	if err != nil {
		return 0, false
	}
	if unit == "px" {
		f = f * 0.75
	}
	return f, true
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, tag); res != nil {
			return res
		}
	}
	return nil
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
