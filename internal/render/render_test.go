package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/goreport/internal/docanalysis"
	"github.com/hyperifyio/goreport/internal/docmodel"
	"github.com/hyperifyio/goreport/internal/imagematch"
	"github.com/hyperifyio/goreport/internal/sections"
)

func content() *sections.GeneratedContent {
	g := sections.NewGeneratedContent("Edge AI", "intermediate", sections.EngineRuleBased, []sections.ContentSection{
		sections.NewContentSection("Introduction", "Edge AI moves inference closer to devices.", nil),
		sections.NewContentSection("Results", "Latency dropped by half.", nil),
		sections.NewContentSection("Literature Review", "Prior work focused on the cloud.", nil),
		sections.NewContentSection("Conclusion", "", nil),
	})
	return &g
}

func fields() Fields {
	return Fields{StudentName: "Asha Rao", RollNo: "42", Topic: "Edge AI", CollegeName: "Example College", Department: "Computer Engineering"}
}

func TestBuildContext_SectionsAndAliases(t *testing.T) {
	c := BuildContext(fields(), content(), nil, nil)

	assert.Equal(t, "Asha Rao", c.Value("STUDENT_NAME"))
	assert.Equal(t, "Edge AI moves inference closer to devices.", c.Value("INTRODUCTION"))
	assert.Equal(t, "Latency dropped by half.", c.Value("RESULTS"))
	assert.Equal(t, "Latency dropped by half.", c.Value("RESULT"), "Results also fills the canonical RESULT slot")
	assert.Equal(t, "Prior work focused on the cloud.", c.Value("LITERATURE_REVIEW"))

	for _, k := range sections.Placeholders {
		_, ok := c.Values[k]
		assert.True(t, ok, "placeholder %s present", k)
	}
	require.Len(t, c.Sections, 4)
	assert.Equal(t, Section{Title: "Results", Key: "RESULT"}, c.Sections[1])
	assert.Equal(t, Section{Title: "Literature Review", Key: "LITERATURE_REVIEW"}, c.Sections[2])
}

func TestBuildContext_OverridesFillOnlyEmptySlots(t *testing.T) {
	c := BuildContext(fields(), content(), map[string]string{
		"INTRODUCTION": "user intro",
		"CONCLUSION":   "user conclusion",
		"OBJECTIVES":   "user objectives",
		"METHODOLOGY":  "",
	}, nil)
	assert.Equal(t, "Edge AI moves inference closer to devices.", c.Value("INTRODUCTION"))
	assert.Equal(t, "user conclusion", c.Value("CONCLUSION"))
	assert.Equal(t, "user objectives", c.Value("OBJECTIVES"))
	assert.Equal(t, "", c.Value("METHODOLOGY"))
}

func TestBuildContext_FigureCaptions(t *testing.T) {
	c := BuildContext(fields(), content(), nil, []imagematch.Placement{
		{Caption: "System overview", TargetSection: "Introduction", Mode: imagematch.Top},
		{Caption: "Latency chart", TargetSection: "results", Mode: imagematch.Inline},
		{Caption: "Setup photo", TargetSection: "Methodology", Mode: imagematch.Bottom},
	})
	assert.Equal(t, "Figure 1: System overview\n\nEdge AI moves inference closer to devices.", c.Value("INTRODUCTION"))
	assert.Equal(t, "Latency dropped by half.\n\nFigure 2: Latency chart", c.Value("RESULT"))
	assert.Equal(t, c.Value("RESULT"), c.Value("RESULTS"))
	assert.Equal(t, "Figure 3: Setup photo", c.Value("METHODOLOGY"))
}

func TestBuildContext_NoContentUsesCanonicalOrder(t *testing.T) {
	c := BuildContext(fields(), nil, map[string]string{"INTRODUCTION": "typed by hand"}, nil)
	require.Len(t, c.Sections, 6)
	assert.Equal(t, "RESULT", c.Sections[3].Key)
	assert.Equal(t, "typed by hand", c.Value("INTRODUCTION"))
	assert.Equal(t, "Asha Rao", c.TemplateData()["STUDENT_NAME"])
}

func TestDefaultTemplate_IsAValidTemplate(t *testing.T) {
	dir := t.TempDir()
	p, err := EnsureDefaultTemplate(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultTemplateName), p)

	prof, err := docanalysis.AnalyzeFile(p, DefaultTemplateName)
	require.NoError(t, err)
	assert.True(t, prof.TemplateValid)
	assert.Equal(t, docanalysis.TierHigh, prof.Compatibility)
	assert.ElementsMatch(t, sections.Placeholders, prof.PlaceholderTokens)

	again, err := EnsureDefaultTemplate(dir)
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestDocxRenderer(t *testing.T) {
	dir := t.TempDir()
	tmpl, err := EnsureDefaultTemplate(dir)
	require.NoError(t, err)

	out := filepath.Join(dir, "out", "report.docx")
	c := BuildContext(fields(), content(), nil, nil)
	require.NoError(t, DocxRenderer{TemplatePath: tmpl}.Render(c, out))

	doc, err := docmodel.ParseFile(out)
	require.NoError(t, err)
	var all []string
	for _, p := range doc.Paragraphs {
		all = append(all, p.Text)
	}
	text := strings.Join(all, "\n")
	assert.Contains(t, text, "Example College")
	assert.Contains(t, text, "Name: Asha Rao")
	assert.Contains(t, text, "Latency dropped by half.")
	assert.NotContains(t, text, "{{")
}

func TestDocxRenderer_MissingTemplate(t *testing.T) {
	err := DocxRenderer{TemplatePath: filepath.Join(t.TempDir(), "none.docx")}.Render(BuildContext(fields(), nil, nil, nil), filepath.Join(t.TempDir(), "x.docx"))
	assert.Error(t, err)
}

func TestBuiltinPDF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.docx")
	c := BuildContext(fields(), content(), nil, []imagematch.Placement{{Caption: "Chart • latency", TargetSection: "Results", Mode: imagematch.Bottom}})

	out, err := BuiltinPDF{}.Convert(context.Background(), src, c)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.pdf"), out)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "%PDF-"))
}

func TestConvertOrOriginal(t *testing.T) {
	src := filepath.Join(t.TempDir(), "report.docx")
	c := BuildContext(fields(), nil, nil, nil)

	assert.Equal(t, src, ConvertOrOriginal(context.Background(), nil, src, c))
	assert.Equal(t, src, ConvertOrOriginal(context.Background(), SofficeConverter{Binary: "definitely-not-a-real-binary"}, src, c))
	assert.Equal(t, strings.TrimSuffix(src, ".docx")+".pdf", ConvertOrOriginal(context.Background(), BuiltinPDF{}, src, c))
}

func TestNewPDFConverter(t *testing.T) {
	conv, err := NewPDFConverter("")
	require.NoError(t, err)
	assert.Nil(t, conv)

	conv, err = NewPDFConverter("builtin")
	require.NoError(t, err)
	assert.IsType(t, BuiltinPDF{}, conv)

	conv, err = NewPDFConverter("soffice")
	require.NoError(t, err)
	assert.IsType(t, SofficeConverter{}, conv)

	_, err = NewPDFConverter("word")
	assert.Error(t, err)
}
