package engine

import (
	"github.com/hyperifyio/goreport/internal/sections"
	"github.com/hyperifyio/goreport/internal/topic"
)

var targetWords = map[sections.Kind][3]int{
	sections.Introduction: {200, 300, 400},
	sections.Objectives:   {150, 200, 250},
	sections.Methodology:  {250, 350, 500},
	sections.Results:      {200, 300, 400},
	sections.Conclusion:   {150, 200, 250},
	sections.References:   {100, 150, 200},
}

const defaultTargetWords = 250

// TargetWordCount returns the requested AI length for a section.
func TargetWordCount(section, complexity string) int {
	row, ok := targetWords[sections.Classify(section)]
	if !ok {
		return defaultTargetWords
	}
	switch complexity {
	case topic.Basic:
		return row[0]
	case topic.Intermediate:
		return row[1]
	case topic.Advanced:
		return row[2]
	}
	return defaultTargetWords
}

var aiKeywords = map[string][]string{
	topic.ComputerScience: {"algorithm", "system", "data", "implementation", "performance"},
	topic.Engineering:     {"design", "analysis", "testing", "specification", "validation"},
	topic.Business:        {"market", "strategy", "financial", "management", "operational"},
	topic.Science:         {"experiment", "hypothesis", "data", "analysis", "research"},
}

var aiDefaultKeywords = []string{"study", "analysis", "research", "findings"}

func aiVocabulary(domain string) []string {
	if v, ok := aiKeywords[domain]; ok {
		return v
	}
	return aiDefaultKeywords
}
