// Package topic classifies a free-form report topic into a domain,
// a complexity level, an expanded keyword set and a default section outline.
package topic

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hyperifyio/goreport/internal/sections"
)

// Domain values.
const (
	ComputerScience = "computer_science"
	Engineering     = "engineering"
	Business        = "business"
	Science         = "science"
	General         = "general"
)

// Complexity levels.
const (
	Basic        = "basic"
	Intermediate = "intermediate"
	Advanced     = "advanced"
)

// Profile is the immutable classification of a single topic.
type Profile struct {
	RawTopic              string   `json:"raw_topic"`
	Domain                string   `json:"domain"`
	ComplexityLevel       string   `json:"complexity_level"`
	RelatedKeywords       []string `json:"related_keywords"`
	SuggestedSections     []string `json:"suggested_sections"`
	RecommendedLengthBand string   `json:"recommended_length_band"`
}

// domainKeywords is evaluated in order; the first hit wins.
var domainKeywords = []struct {
	domain   string
	keywords []string
}{
	{ComputerScience, []string{"algorithm", "programming", "software", "database", "ai", "machine learning", "web development"}},
	{Engineering, []string{"mechanical", "electrical", "civil", "chemical", "design", "manufacturing"}},
	{Business, []string{"marketing", "finance", "management", "economics", "entrepreneurship"}},
	{Science, []string{"biology", "chemistry", "physics", "mathematics", "research"}},
}

var vocabulary = map[string][]string{
	ComputerScience: {"algorithm", "framework", "implementation", "optimization", "architecture"},
	Engineering:     {"design", "analysis", "specification", "validation", "prototype"},
	Business:        {"strategy", "marketing", "finance", "operations", "management"},
	Science:         {"hypothesis", "experimentation", "analysis", "theory", "empirical"},
}

var extraSections = map[string][]string{
	ComputerScience: {"Literature Review", "System Design", "Implementation"},
	Engineering:     {"Design Specifications", "Testing Results", "Performance Analysis"},
	Business:        {"Market Analysis", "Financial Evaluation", "Strategic Recommendations"},
	Science:         {"Theoretical Background", "Experimental Setup", "Data Analysis"},
}

var lengthBands = map[string]string{
	Basic:        "1000-1500 words",
	Intermediate: "1500-2500 words",
	Advanced:     "2500-4000 words",
}

var technicalRe = regexp.MustCompile(`\b(?:algorithm|methodology|implementation|analysis|framework)\b`)

// Classify builds a Profile for topic. It never fails: an empty topic yields
// the general domain at basic complexity.
func Classify(topic string) Profile {
	lower := strings.ToLower(topic)
	domain := DetectDomain(lower)
	complexity := Complexity(topic)
	return Profile{
		RawTopic:              topic,
		Domain:                domain,
		ComplexityLevel:       complexity,
		RelatedKeywords:       expandKeywords(strings.Fields(topic), domain),
		SuggestedSections:     SuggestSections(domain),
		RecommendedLengthBand: LengthBand(complexity),
	}
}

// DetectDomain returns the first domain whose keyword list has a
// case-insensitive substring hit in topic.
func DetectDomain(topic string) string {
	lower := strings.ToLower(topic)
	for _, d := range domainKeywords {
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				return d.domain
			}
		}
	}
	return General
}

// TechnicalCount counts whole-word technical vocabulary matches.
func TechnicalCount(topic string) int {
	return len(technicalRe.FindAllString(strings.ToLower(topic), -1))
}

// Complexity applies the word-count / technical-term threshold table.
func Complexity(topic string) string {
	words := len(strings.Fields(topic))
	technical := TechnicalCount(topic)
	switch {
	case words > 10 || technical > 2:
		return Advanced
	case words > 5 || technical > 0:
		return Intermediate
	default:
		return Basic
	}
}

// Vocabulary returns the academic vocabulary of a domain. General has none.
// The returned slice must not be modified.
func Vocabulary(domain string) []string {
	return vocabulary[domain]
}

// SuggestSections returns the six canonical sections followed by at most two
// domain-specific extras.
func SuggestSections(domain string) []string {
	out := append([]string{}, sections.Canonical...)
	extras := extraSections[domain]
	if len(extras) > 2 {
		extras = extras[:2]
	}
	return append(out, extras...)
}

// LengthBand returns the recommended report length label for a complexity.
func LengthBand(complexity string) string {
	if band, ok := lengthBands[complexity]; ok {
		return band
	}
	return lengthBands[Intermediate]
}

func expandKeywords(tokens []string, domain string) []string {
	seen := make(map[string]struct{}, len(tokens)+3)
	out := make([]string, 0, len(tokens)+3)
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, t := range tokens {
		add(t)
	}
	vocab := vocabulary[domain]
	if len(vocab) > 3 {
		vocab = vocab[:3]
	}
	for _, v := range vocab {
		add(v)
	}
	sort.Strings(out)
	return out
}
