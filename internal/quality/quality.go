// Package quality scores a finished set of report sections.
package quality

import "github.com/hyperifyio/goreport/internal/sections"

// Profile weights the length and completeness components for one generation
// path.
type Profile struct {
	Name       string
	BandLow    float64
	BandHigh   float64
	AboveScore float64
	// ClampCompleteness caps the completeness component at 100.
	ClampCompleteness bool
}

var (
	// RuleBased keeps completeness unclamped, so reports with many sections
	// can score above 100.
	RuleBased = Profile{Name: sections.EngineRuleBased, BandLow: 300, BandHigh: 800, AboveScore: 80}
	AI        = Profile{Name: sections.EngineAI, BandLow: 200, BandHigh: 600, AboveScore: 85, ClampCompleteness: true}
)

const canonicalCount = 6

// Score returns lengthScore*0.7 + completeness*0.3 for the given sections.
func Score(list []sections.ContentSection, p Profile) float64 {
	if len(list) == 0 {
		return 0
	}
	total := 0
	for _, s := range list {
		total += s.WordCount()
	}
	return Compute(len(list), total, p)
}

// ScoreContent scores every section of g.
func ScoreContent(g sections.GeneratedContent, p Profile) float64 {
	return Compute(len(g.Sections), g.OverallWordCount(), p)
}

// Compute is Score over aggregate counts.
func Compute(sectionCount, totalWords int, p Profile) float64 {
	if sectionCount <= 0 {
		return 0
	}
	avg := float64(totalWords) / float64(sectionCount)
	var length float64
	switch {
	case avg >= p.BandLow && avg <= p.BandHigh:
		length = 100
	case avg > p.BandHigh:
		length = p.AboveScore
	default:
		length = avg / p.BandLow * 100
	}
	completeness := float64(sectionCount) / canonicalCount * 100
	if p.ClampCompleteness && completeness > 100 {
		completeness = 100
	}
	return length*0.7 + completeness*0.3
}
