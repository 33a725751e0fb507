package llm

import (
	"strings"
	"testing"
)

func TestBuildPrompt_SectionGuidanceByKind(t *testing.T) {
	cases := map[string]string{
		"Introduction":           "Write an engaging introduction",
		"Project Objectives":     "List 4-6 specific, measurable objectives",
		"Research Methods":       "Describe the research approach",
		"Results and Discussion": "Present findings and analysis",
		"Conclusions":            "Provide a comprehensive conclusion",
		"References":             "List academic sources",
		"System Design":          "Write a comprehensive System Design section about Edge AI in the computer_science field.",
	}
	for section, want := range cases {
		p := BuildPrompt(SectionSpec{Section: section, Topic: "Edge AI", Domain: "computer_science"})
		if !strings.Contains(p, want) {
			t.Fatalf("%s: missing %q in:\n%s", section, want, p)
		}
	}
}

func TestBuildPrompt_DefaultsAndOptionalContext(t *testing.T) {
	p := BuildPrompt(SectionSpec{Section: "Introduction", Topic: "T"})
	if !strings.Contains(p, "DOMAIN: general") || !strings.Contains(p, "approximately 300 words") {
		t.Fatalf("defaults not applied:\n%s", p)
	}
	if strings.Contains(p, "Student Name:") || strings.Contains(p, "Institution:") {
		t.Fatalf("empty context fields must be omitted:\n%s", p)
	}
	if !strings.HasSuffix(p, "Generate the content now:") {
		t.Fatalf("prompt should end with the generation cue")
	}
}
