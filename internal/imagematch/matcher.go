// Package imagematch assigns captioned images to generated report sections
// and decides where in the section each figure goes.
package imagematch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/goreport/internal/sections"
)

// Placement modes.
const (
	Top    = "top"
	Bottom = "bottom"
	Inline = "inline"
	Auto   = "auto"
)

// AutoRelevance asks the matcher to pick the section.
const AutoRelevance = "auto"

const (
	selectPrefix    = 200
	relevancePrefix = 300

	defaultOCRWorkers = 4
)

// Image describes one uploaded figure.
type Image struct {
	Filename          string `json:"filename"`
	Caption           string `json:"caption"`
	DeclaredRelevance string `json:"content_relevance"`
	FileSize          int64  `json:"file_size"`
}

// SectionText is a generated section's name and body, in request order.
type SectionText struct {
	Name string
	Body string
}

// Placement is the matching decision for one image.
type Placement struct {
	ImageRef       string  `json:"original_filename"`
	Caption        string  `json:"caption"`
	TargetSection  string  `json:"placement_section"`
	Mode           string  `json:"placement_preference"`
	RelevanceScore float64 `json:"relevance_score"`
	ExtractedText  string  `json:"image_text"`
	FileSize       int64   `json:"file_size"`
}

var captionKeywords = map[sections.Kind][]string{
	sections.Introduction: {"overview", "background", "context", "study", "research"},
	sections.Objectives:   {"goal", "aim", "purpose", "target", "objective"},
	sections.Methodology:  {"method", "approach", "procedure", "technique", "process"},
	sections.Results:      {"result", "finding", "outcome", "data", "analysis", "chart", "graph"},
	sections.Conclusion:   {"conclusion", "summary", "finding", "recommendation"},
	sections.References:   {"reference", "source", "citation", "bibliography"},
}

// positional cues, checked in order.
var positional = []struct {
	words []string
	mode  string
}{
	{[]string{"above", "top", "beginning"}, Top},
	{[]string{"below", "bottom", "end"}, Bottom},
	{[]string{"side", "next to", "beside"}, Inline},
}

var kindDefaults = map[sections.Kind]string{
	sections.Introduction: Top,
	sections.Methodology:  Inline,
	sections.Results:      Inline,
	sections.Conclusion:   Bottom,
}

// Matcher is stateless apart from its configuration and safe for
// concurrent use.
type Matcher struct {
	// OCR extracts text from the image file; nil disables extraction.
	OCR TextExtractor
	// ImageDir, when set, is where image files live. Images whose file is
	// missing or not a supported raster format are skipped.
	ImageDir string
	// OCRWorkers bounds concurrent OCR calls; zero means 4.
	OCRWorkers int
}

// New returns a matcher using ocr (nil means no OCR) and imageDir.
func New(ocr TextExtractor, imageDir string) *Matcher {
	return &Matcher{OCR: ocr, ImageDir: imageDir}
}

// Match returns one placement per accepted image, in input order. Placement
// is decided up front; OCR for the accepted images then runs concurrently.
func (m *Matcher) Match(ctx context.Context, images []Image, secs []SectionText) []Placement {
	out := make([]Placement, 0, len(images))
	paths := make([]string, 0, len(images))
	for _, img := range images {
		path := ""
		if m.ImageDir != "" {
			path = filepath.Join(m.ImageDir, filepath.Base(img.Filename))
			if _, err := ValidateImageFormat(path); err != nil {
				log.Warn().Err(err).Str("image", img.Filename).Msg("skipping image")
				continue
			}
			if img.FileSize == 0 {
				img.FileSize = fileSize(path)
			}
		}
		out = append(out, m.place(img, secs))
		paths = append(paths, path)
	}
	if m.OCR == nil {
		return out
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers())
	for i := range out {
		g.Go(func() error {
			out[i].ExtractedText = m.extract(gctx, paths[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (m *Matcher) workers() int {
	if m.OCRWorkers > 0 {
		return m.OCRWorkers
	}
	return defaultOCRWorkers
}

func (m *Matcher) place(img Image, secs []SectionText) Placement {
	target := img.DeclaredRelevance
	if target == "" || target == AutoRelevance {
		target = BestSection(img.Caption, secs)
	}
	return Placement{
		ImageRef:       img.Filename,
		Caption:        img.Caption,
		TargetSection:  target,
		Mode:           PlacementMode(img.Caption, target),
		RelevanceScore: Relevance(img.Caption, bodyOf(target, secs)),
		FileSize:       img.FileSize,
	}
}

func (m *Matcher) extract(ctx context.Context, path string) string {
	if m.OCR == nil || path == "" {
		return ""
	}
	text, err := m.OCR.ExtractText(ctx, path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("ocr failed")
		return ""
	}
	return strings.TrimSpace(text)
}

// BestSection picks the section maximizing caption similarity to the body's
// first 200 characters plus half the caption's keyword overlap with the
// section kind. The first strictly better section wins; with no positive
// score the result is "introduction".
func BestSection(caption string, secs []SectionText) string {
	c := strings.ToLower(caption)
	best, bestScore := "introduction", 0.0
	for _, s := range secs {
		score := Similarity(c, prefix(strings.ToLower(s.Body), selectPrefix)) +
			0.5*keywordOverlap(c, sections.Classify(s.Name))
		if score > bestScore {
			best, bestScore = s.Name, score
		}
	}
	return best
}

// PlacementMode reads positional cues from the caption and otherwise falls
// back to the section kind's default.
func PlacementMode(caption, section string) string {
	c := strings.ToLower(caption)
	for _, p := range positional {
		for _, w := range p.words {
			if strings.Contains(c, w) {
				return p.mode
			}
		}
	}
	if mode, ok := kindDefaults[sections.Classify(section)]; ok {
		return mode
	}
	return Auto
}

// Relevance is min(100, 5*hits + 50*similarity), where hits counts caption
// words found in the body and similarity uses the body's first 300
// characters.
func Relevance(caption, body string) float64 {
	c := strings.ToLower(caption)
	b := strings.ToLower(body)
	hits := 0
	for _, w := range strings.Fields(c) {
		if strings.Contains(b, w) {
			hits++
		}
	}
	score := float64(hits)*5 + Similarity(c, prefix(b, relevancePrefix))*50
	if score > 100 {
		return 100
	}
	return score
}

// Similarity is the difflib ratio of a and b compared rune by rune.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func keywordOverlap(caption string, kind sections.Kind) float64 {
	words := captionKeywords[kind]
	if len(words) == 0 {
		return 0
	}
	n := 0
	for _, w := range words {
		if strings.Contains(caption, w) {
			n++
		}
	}
	return float64(n) / float64(len(words))
}

// bodyOf looks the section up by exact name, then by normalized key.
func bodyOf(name string, secs []SectionText) string {
	for _, s := range secs {
		if s.Name == name {
			return s.Body
		}
	}
	key := sections.Key(name)
	for _, s := range secs {
		if sections.Key(s.Name) == key {
			return s.Body
		}
	}
	return ""
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// fileSize reports the size of path or 0.
func fileSize(path string) int64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return st.Size()
}
