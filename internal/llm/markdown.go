package llm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// PlainText strips markdown markup from model output. Emphasis, links and
// headings keep their text; list items become "• " or "n. " lines; code
// blocks keep their content verbatim.
func PlainText(md string) string {
	src := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				sb.Write(node.Segment.Value(src))
				switch {
				case node.HardLineBreak():
					sb.WriteByte('\n')
				case node.SoftLineBreak():
					sb.WriteByte(' ')
				}
			}
			return ast.WalkContinue, nil
		case *ast.String:
			if entering {
				sb.Write(node.Value)
			}
			return ast.WalkContinue, nil
		case *ast.AutoLink:
			if entering {
				sb.Write(node.Label(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					sb.Write(seg.Value(src))
				}
			}
		case *ast.ListItem:
			if entering {
				ensureNewlines(&sb, 1)
				sb.WriteString(listMarker(node))
				return ast.WalkContinue, nil
			}
		}
		if !entering && n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
			if inListItem(n) || n.Kind() == ast.KindListItem {
				ensureNewlines(&sb, 1)
			} else {
				ensureNewlines(&sb, 2)
			}
		}
		return ast.WalkContinue, nil
	})
	out := blankRuns.ReplaceAllString(sb.String(), "\n\n")
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "• "
	}
	idx := list.Start
	for p := item.PreviousSibling(); p != nil; p = p.PreviousSibling() {
		idx++
	}
	return strconv.Itoa(idx) + ". "
}

func inListItem(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == ast.KindListItem {
			return true
		}
	}
	return false
}

func ensureNewlines(sb *strings.Builder, want int) {
	s := sb.String()
	if s == "" {
		return
	}
	have := len(s) - len(strings.TrimRight(s, "\n"))
	for ; have < want; have++ {
		sb.WriteByte('\n')
	}
}
