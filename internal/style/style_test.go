package style

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_HasAcademicAndTechnical(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "academic" || names[1] != "technical" {
		t.Fatalf("names = %v", names)
	}
	tech := r.Lookup("technical")
	if tech.Tone != "technical" || tech.ComplexityLevel != "advanced" {
		t.Fatalf("technical = %+v", tech)
	}
	if len(tech.TransitionWords) != 5 || len(tech.AcademicPhrases) != 4 {
		t.Fatalf("technical vocabulary incomplete: %+v", tech)
	}
}

func TestLookup_UnknownFallsBackToAcademic(t *testing.T) {
	r := MustDefault()
	if got := r.Lookup("poetic").Name; got != "academic" {
		t.Fatalf("fallback = %q", got)
	}
	if r.Has("poetic") {
		t.Fatalf("Has should be false for unknown style")
	}
}

func TestLookup_ReturnsIndependentCopy(t *testing.T) {
	r := MustDefault()
	got := r.Lookup("academic")
	if len(got.AcademicPhrases) == 0 || len(got.TransitionWords) == 0 || len(got.SectionTemplates) == 0 {
		t.Fatalf("academic style is incomplete: %+v", got)
	}
	origPhrase := got.AcademicPhrases[0]
	origWord := got.TransitionWords[0]
	origIntro := got.SectionTemplates["introduction"]

	got.AcademicPhrases[0] = "mutated"
	got.TransitionWords[0] = "mutated"
	got.SectionTemplates["introduction"] = "mutated"

	again := r.Lookup("academic")
	if again.AcademicPhrases[0] != origPhrase || again.TransitionWords[0] != origWord {
		t.Fatalf("registry slices changed through a lookup result")
	}
	if again.SectionTemplates["introduction"] != origIntro {
		t.Fatalf("registry section templates changed through a lookup result")
	}
}

func TestSkeleton_Substitution(t *testing.T) {
	a := MustDefault().Lookup("academic")
	got, ok := a.Skeleton("introduction", "Edge Computing", "")
	if !ok {
		t.Fatalf("expected introduction skeleton")
	}
	if !strings.Contains(got, "examines Edge Computing within the broader context of edge computing.") {
		t.Fatalf("unexpected skeleton: %q", got)
	}
	if _, ok := a.Skeleton("methodology", "x", ""); ok {
		t.Fatalf("academic has no methodology skeleton")
	}
	if _, ok := MustDefault().Lookup("technical").Skeleton("introduction", "x", ""); ok {
		t.Fatalf("technical has no skeletons")
	}
}

func TestParse_Validation(t *testing.T) {
	cases := map[string]string{
		"missing academic": "styles:\n  - name: technical\n    tone: technical\n",
		"missing tone":     "styles:\n  - name: academic\n",
		"missing name":     "styles:\n  - tone: formal\n",
		"duplicate":        "styles:\n  - name: academic\n    tone: a\n  - name: academic\n    tone: b\n",
		"bad yaml":         "styles: [",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadFile_BuildsNewRegistry(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "styles.yaml")
	doc := "styles:\n  - name: academic\n    tone: plain\n    phrases: [one]\n    transitions: [also]\n"
	if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	orig := MustDefault()
	r, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if r.Lookup("academic").Tone != "plain" {
		t.Fatalf("reloaded tone not applied")
	}
	if orig.Lookup("academic").Tone != "formal" {
		t.Fatalf("original registry must be unchanged")
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
