package sections

import (
	"encoding/json"
	"strings"
)

// Engine names recorded on GeneratedContent.
const (
	EngineAI          = "ai"
	EngineRuleBased   = "rule_based"
	EnginePlaceholder = "placeholder"
)

// ContentSection is one generated report section. The word count is derived
// from the body and cannot be set on its own.
type ContentSection struct {
	Name              string
	Body              string
	KeyPoints         []string
	ExtractedKeywords []string
}

// NewContentSection builds a section with key points derived from body.
func NewContentSection(name, body string, keywords []string) ContentSection {
	return ContentSection{
		Name:              name,
		Body:              body,
		KeyPoints:         KeyPoints(body),
		ExtractedKeywords: keywords,
	}
}

// WordCount is the number of whitespace-delimited tokens in the body.
func (c ContentSection) WordCount() int {
	return len(strings.Fields(c.Body))
}

type contentSectionJSON struct {
	Name              string   `json:"section_name"`
	Body              string   `json:"content"`
	WordCount         int      `json:"word_count"`
	KeyPoints         []string `json:"key_points"`
	ExtractedKeywords []string `json:"academic_keywords"`
}

// MarshalJSON emits the derived word count alongside the body.
func (c ContentSection) MarshalJSON() ([]byte, error) {
	return json.Marshal(contentSectionJSON{
		Name:              c.Name,
		Body:              c.Body,
		WordCount:         c.WordCount(),
		KeyPoints:         nonNil(c.KeyPoints),
		ExtractedKeywords: nonNil(c.ExtractedKeywords),
	})
}

// UnmarshalJSON ignores any serialized word count.
func (c *ContentSection) UnmarshalJSON(b []byte) error {
	var v contentSectionJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = ContentSection{Name: v.Name, Body: v.Body, KeyPoints: v.KeyPoints, ExtractedKeywords: v.ExtractedKeywords}
	return nil
}

// GeneratedContent is the result of one generation request. Sections are
// keyed by Key(name); Order keeps the request order of those keys.
type GeneratedContent struct {
	Topic         string
	Sections      map[string]ContentSection
	Order         []string
	AcademicLevel string
	QualityScore  float64
	Engine        string
}

// NewGeneratedContent collects sections in request order. A repeated key
// keeps the position of its first occurrence and the body of the last.
func NewGeneratedContent(topic, level, engine string, list []ContentSection) GeneratedContent {
	g := GeneratedContent{
		Topic:         topic,
		Sections:      make(map[string]ContentSection, len(list)),
		AcademicLevel: level,
		Engine:        engine,
	}
	for _, s := range list {
		k := Key(s.Name)
		if _, seen := g.Sections[k]; !seen {
			g.Order = append(g.Order, k)
		}
		g.Sections[k] = s
	}
	return g
}

// OverallWordCount sums the section word counts.
func (g GeneratedContent) OverallWordCount() int {
	total := 0
	for _, s := range g.Sections {
		total += s.WordCount()
	}
	return total
}

// Ordered returns the sections in request order.
func (g GeneratedContent) Ordered() []ContentSection {
	out := make([]ContentSection, 0, len(g.Order))
	for _, k := range g.Order {
		out = append(out, g.Sections[k])
	}
	return out
}

type generatedJSON struct {
	Topic            string                    `json:"topic"`
	Sections         map[string]ContentSection `json:"sections"`
	Order            []string                  `json:"section_order"`
	OverallWordCount int                       `json:"overall_word_count"`
	AcademicLevel    string                    `json:"academic_level"`
	QualityScore     float64                   `json:"content_quality_score"`
	Engine           string                    `json:"engine"`
}

func (g GeneratedContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(generatedJSON{
		Topic:            g.Topic,
		Sections:         g.Sections,
		Order:            nonNil(g.Order),
		OverallWordCount: g.OverallWordCount(),
		AcademicLevel:    g.AcademicLevel,
		QualityScore:     g.QualityScore,
		Engine:           g.Engine,
	})
}

func (g *GeneratedContent) UnmarshalJSON(b []byte) error {
	var v generatedJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*g = GeneratedContent{
		Topic:         v.Topic,
		Sections:      v.Sections,
		Order:         v.Order,
		AcademicLevel: v.AcademicLevel,
		QualityScore:  v.QualityScore,
		Engine:        v.Engine,
	}
	return nil
}

// KeyPoints splits body on ". " and keeps the first three non-empty chunks,
// each trimmed and ending with exactly one period.
func KeyPoints(body string) []string {
	chunks := strings.Split(body, ". ")
	if len(chunks) > 3 {
		chunks = chunks[:3]
	}
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		c = strings.TrimRight(strings.TrimSpace(c), ".")
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, c+".")
	}
	return out
}

// MatchKeywords returns up to limit vocabulary terms that occur in body,
// compared case-insensitively, in vocabulary order.
func MatchKeywords(body string, vocab []string, limit int) []string {
	lower := strings.ToLower(body)
	out := []string{}
	for _, kw := range vocab {
		if len(out) >= limit {
			break
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			out = append(out, kw)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
