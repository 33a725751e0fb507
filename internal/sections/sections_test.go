package sections

import "testing"

func TestClassify_SubstringDispatch(t *testing.T) {
	cases := map[string]Kind{
		"Introduction":         Introduction,
		"INTRO and background": Introduction,
		"Project Objectives":   Objectives,
		"Research Methodology": Methodology,
		"Testing Results":      Results,
		"Result":               Results,
		"Concluding remarks":   Conclusion,
		"References":           References,
		"Literature Review":    Generic,
		"System Design":        Generic,
		"":                     Generic,
	}
	for name, want := range cases {
		if got := Classify(name); got != want {
			t.Fatalf("Classify(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestClassify_FirstDiscriminatorWins(t *testing.T) {
	// "method" appears before "result" in the discriminator order, but
	// "intro" is checked first of all.
	if got := Classify("Introduction to methods"); got != Introduction {
		t.Fatalf("got %v, want introduction", got)
	}
	if got := Classify("Methods and results"); got != Methodology {
		t.Fatalf("got %v, want methodology", got)
	}
}

func TestKeyAndPlaceholder(t *testing.T) {
	if got := Key("Literature Review"); got != "literature_review" {
		t.Fatalf("Key = %q", got)
	}
	if Results.Placeholder() != "RESULT" {
		t.Fatalf("results placeholder = %q", Results.Placeholder())
	}
	if Generic.Placeholder() != "" {
		t.Fatalf("generic placeholder should be empty")
	}
}
