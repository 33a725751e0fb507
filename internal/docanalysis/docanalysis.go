// Package docanalysis derives a structure profile from a sample document:
// formatting summaries, placeholder tokens, recognised section headings and
// a template compatibility assessment.
package docanalysis

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hyperifyio/goreport/internal/docmodel"
	"github.com/hyperifyio/goreport/internal/sections"
)

// Compatibility tiers.
const (
	TierHigh         = "high"
	TierMedium       = "medium"
	TierLow          = "low"
	TierIncompatible = "incompatible"
)

const maxRecommended = 15

var placeholderRE = regexp.MustCompile(`\{\{[^}]+\}\}`)

var headingREs = []*regexp.Regexp{
	regexp.MustCompile(`^\s*introduction\s*$`),
	regexp.MustCompile(`^\s*objectives?\s*$`),
	regexp.MustCompile(`^\s*methodology\s*$`),
	regexp.MustCompile(`^\s*results?\s*$`),
	regexp.MustCompile(`^\s*conclusion\s*$`),
	regexp.MustCompile(`^\s*references?\s*$`),
}

// FontSummary aggregates direct run formatting.
type FontSummary struct {
	Fonts          []string  `json:"fonts_used"`
	Sizes          []float64 `json:"font_sizes"`
	Colors         []string  `json:"font_colors"`
	BoldUsage      int       `json:"bold_usage"`
	ItalicUsage    int       `json:"italic_usage"`
	UnderlineUsage int       `json:"underline_usage"`
}

// ParagraphSummary aggregates paragraph formatting.
type ParagraphSummary struct {
	Alignments    []string  `json:"alignment_types"`
	SpacingBefore []float64 `json:"spacing_before"`
	SpacingAfter  []float64 `json:"spacing_after"`
	LineSpacings  []string  `json:"line_spacing"`
	Styles        []string  `json:"styles_used"`
}

// Margins in points.
type Margins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// PageSection describes one document section's page geometry.
type PageSection struct {
	Number      int     `json:"section_number"`
	Orientation string  `json:"page_orientation"`
	Width       float64 `json:"page_width"`
	Height      float64 `json:"page_height"`
	Margins     Margins `json:"margins"`
}

// HeaderFooter describes the first section's header and footer.
type HeaderFooter struct {
	HasHeader     bool     `json:"has_header"`
	HasFooter     bool     `json:"has_footer"`
	HeaderContent []string `json:"header_content"`
	FooterContent []string `json:"footer_content"`
}

// Profile is the structure profile of one sample document.
type Profile struct {
	ID                      string           `json:"document_id"`
	OriginalFilename        string           `json:"original_filename"`
	FileSize                int64            `json:"file_size"`
	AnalyzedAt              time.Time        `json:"upload_timestamp"`
	Fonts                   FontSummary      `json:"font_styles"`
	Paragraphs              ParagraphSummary `json:"paragraph_styles"`
	Sections                []PageSection    `json:"section_structure"`
	HeaderFooter            HeaderFooter     `json:"header_footer_info"`
	PlaceholderTokens       []string         `json:"identified_placeholders"`
	ContentSections         []string         `json:"content_sections"`
	ParagraphCount          int              `json:"paragraph_count"`
	FormattingScore         float64          `json:"formatting_preservation_score"`
	TemplateValid           bool             `json:"is_valid_template"`
	Compatibility           string           `json:"template_compatibility"`
	RecommendedPlaceholders []string         `json:"recommended_placeholders"`
}

// PageSetup returns the first section's geometry, if any.
func (p Profile) PageSetup() (PageSection, bool) {
	if len(p.Sections) == 0 {
		return PageSection{}, false
	}
	return p.Sections[0], true
}

// Analyze computes every field that depends only on the document content.
// Identity fields (ID, filename, size, time) are left to the caller.
func Analyze(doc *docmodel.Document) Profile {
	p := Profile{
		Fonts:             fontSummary(doc.Paragraphs),
		Paragraphs:        paragraphSummary(doc.Paragraphs),
		Sections:          pageSections(doc.Sections),
		HeaderFooter:      headerFooter(doc),
		PlaceholderTokens: Placeholders(doc),
		ContentSections:   Headings(doc.Paragraphs),
		ParagraphCount:    len(doc.Paragraphs),
	}
	p.FormattingScore = Score(len(p.Fonts.Fonts), len(p.Paragraphs.Styles), len(p.ContentSections))
	p.Compatibility = Tier(p.FormattingScore)
	p.TemplateValid = p.ParagraphCount > 5 && len(p.ContentSections) >= 2 && len(p.PlaceholderTokens) > 0
	p.RecommendedPlaceholders = Recommend(p.PlaceholderTokens)
	return p
}

// AnalyzeFile parses the file at path and analyzes it. The returned profile
// carries the file size and analysis time; the ID is left empty.
func AnalyzeFile(path, originalFilename string) (Profile, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Profile{}, fmt.Errorf("stat sample: %w", err)
	}
	doc, err := docmodel.ParseFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("analyze %s: %w", originalFilename, err)
	}
	p := Analyze(doc)
	p.OriginalFilename = originalFilename
	p.FileSize = st.Size()
	p.AnalyzedAt = time.Now().UTC()
	return p, nil
}

// Score starts from 100 and deducts for font sprawl, style sprawl and a
// lack of recognised section headings. It never goes below zero.
func Score(fonts, styles, headings int) float64 {
	score := 100.0
	if fonts > 5 {
		score -= 10
	}
	if styles > 10 {
		score -= 15
	}
	if headings < 3 {
		score -= 20
	}
	if score < 0 {
		return 0
	}
	return score
}

// Tier maps a formatting score to a compatibility tier.
func Tier(score float64) string {
	switch {
	case score >= 80:
		return TierHigh
	case score >= 60:
		return TierMedium
	case score >= 40:
		return TierLow
	default:
		return TierIncompatible
	}
}

// Placeholders returns the distinct {{TOKEN}} names found in paragraphs and
// table cells, sorted.
func Placeholders(doc *docmodel.Document) []string {
	seen := map[string]bool{}
	scan := func(ps []docmodel.Paragraph) {
		for _, para := range ps {
			for _, m := range placeholderRE.FindAllString(para.Text, -1) {
				seen[strings.Trim(m, "{}")] = true
			}
		}
	}
	scan(doc.Paragraphs)
	scan(doc.CellParagraphs())
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Headings returns the distinct canonical section headings, title-cased, in
// the order they first appear.
func Headings(paras []docmodel.Paragraph) []string {
	title := cases.Title(language.English)
	seen := map[string]bool{}
	out := []string{}
	for _, para := range paras {
		text := strings.ToLower(strings.TrimSpace(para.Text))
		for _, re := range headingREs {
			if !re.MatchString(text) {
				continue
			}
			h := title.String(text)
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
			break
		}
	}
	return out
}

// Recommend lists the canonical placeholders followed by any found tokens not
// already present, capped at 15.
func Recommend(found []string) []string {
	out := append([]string(nil), sections.Placeholders...)
	have := make(map[string]bool, len(out))
	for _, c := range out {
		have[c] = true
	}
	for _, f := range found {
		if !have[f] {
			have[f] = true
			out = append(out, f)
		}
	}
	if len(out) > maxRecommended {
		out = out[:maxRecommended]
	}
	return out
}

func fontSummary(paras []docmodel.Paragraph) FontSummary {
	fs := FontSummary{Fonts: []string{}, Sizes: []float64{}, Colors: []string{}}
	fonts, sizes, colors := map[string]bool{}, map[float64]bool{}, map[string]bool{}
	for _, para := range paras {
		for _, r := range para.Runs {
			if r.Font != "" && !fonts[r.Font] {
				fonts[r.Font] = true
				fs.Fonts = append(fs.Fonts, r.Font)
			}
			if r.Size > 0 && !sizes[r.Size] {
				sizes[r.Size] = true
				fs.Sizes = append(fs.Sizes, r.Size)
			}
			if r.Color != "" && !colors[r.Color] {
				colors[r.Color] = true
				fs.Colors = append(fs.Colors, r.Color)
			}
			if r.Bold {
				fs.BoldUsage++
			}
			if r.Italic {
				fs.ItalicUsage++
			}
			if r.Underline {
				fs.UnderlineUsage++
			}
		}
	}
	return fs
}

func paragraphSummary(paras []docmodel.Paragraph) ParagraphSummary {
	ps := ParagraphSummary{
		Alignments:    []string{},
		SpacingBefore: []float64{},
		SpacingAfter:  []float64{},
		LineSpacings:  []string{},
		Styles:        []string{},
	}
	aligns, lines, styles := map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, para := range paras {
		if para.Alignment != "" && !aligns[para.Alignment] {
			aligns[para.Alignment] = true
			ps.Alignments = append(ps.Alignments, para.Alignment)
		}
		if para.SpaceBefore != 0 {
			ps.SpacingBefore = append(ps.SpacingBefore, para.SpaceBefore)
		}
		if para.SpaceAfter != 0 {
			ps.SpacingAfter = append(ps.SpacingAfter, para.SpaceAfter)
		}
		if para.LineSpacing != 0 {
			s := strconv.FormatFloat(para.LineSpacing, 'f', -1, 64)
			if !lines[s] {
				lines[s] = true
				ps.LineSpacings = append(ps.LineSpacings, s)
			}
		}
		if para.Style != "" && !styles[para.Style] {
			styles[para.Style] = true
			ps.Styles = append(ps.Styles, para.Style)
		}
	}
	return ps
}

func pageSections(in []docmodel.PageSection) []PageSection {
	out := make([]PageSection, 0, len(in))
	for i, s := range in {
		out = append(out, PageSection{
			Number:      i + 1,
			Orientation: s.Orientation,
			Width:       s.Width,
			Height:      s.Height,
			Margins: Margins{
				Top:    s.MarginTop,
				Bottom: s.MarginBottom,
				Left:   s.MarginLeft,
				Right:  s.MarginRight,
			},
		})
	}
	return out
}

func headerFooter(doc *docmodel.Document) HeaderFooter {
	hf := HeaderFooter{
		HasHeader:     len(doc.Header) > 0,
		HasFooter:     len(doc.Footer) > 0,
		HeaderContent: nonBlank(doc.Header),
		FooterContent: nonBlank(doc.Footer),
	}
	return hf
}

func nonBlank(paras []docmodel.Paragraph) []string {
	out := []string{}
	for _, p := range paras {
		if strings.TrimSpace(p.Text) != "" {
			out = append(out, p.Text)
		}
	}
	return out
}
