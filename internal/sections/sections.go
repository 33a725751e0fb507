// Package sections defines the closed set of canonical report section kinds
// and the name normalization shared by generation, matching and rendering.
package sections

import "strings"

// Kind is a canonical section variant. Names that match none of the canonical
// substrings resolve to Generic.
type Kind int

const (
	Generic Kind = iota
	Introduction
	Objectives
	Methodology
	Results
	Conclusion
	References
)

// Canonical lists the six canonical section names in report order.
var Canonical = []string{"Introduction", "Objectives", "Methodology", "Results", "Conclusion", "References"}

// Placeholders lists the canonical template placeholders: the report fields
// followed by one per canonical section kind.
var Placeholders = []string{
	"STUDENT_NAME", "ROLL_NO", "TOPIC", "COLLEGE_NAME", "DEPARTMENT",
	"INTRODUCTION", "OBJECTIVES", "METHODOLOGY", "RESULT", "CONCLUSION", "REFERENCES",
}

// discriminators is checked in order; the first hit wins.
var discriminators = []struct {
	sub  string
	kind Kind
}{
	{"intro", Introduction},
	{"object", Objectives},
	{"method", Methodology},
	{"result", Results},
	{"concl", Conclusion},
	{"refer", References},
}

// Classify resolves a free-form section name to its kind by case-insensitive
// substring match.
func Classify(name string) Kind {
	lower := strings.ToLower(name)
	for _, d := range discriminators {
		if strings.Contains(lower, d.sub) {
			return d.kind
		}
	}
	return Generic
}

// String returns the lower-case kind name used in tables and logs.
func (k Kind) String() string {
	switch k {
	case Introduction:
		return "introduction"
	case Objectives:
		return "objectives"
	case Methodology:
		return "methodology"
	case Results:
		return "results"
	case Conclusion:
		return "conclusion"
	case References:
		return "references"
	default:
		return "generic"
	}
}

// Placeholder returns the canonical uppercase template placeholder for the
// kind, or "" for Generic.
func (k Kind) Placeholder() string {
	switch k {
	case Introduction:
		return "INTRODUCTION"
	case Objectives:
		return "OBJECTIVES"
	case Methodology:
		return "METHODOLOGY"
	case Results:
		return "RESULT"
	case Conclusion:
		return "CONCLUSION"
	case References:
		return "REFERENCES"
	default:
		return ""
	}
}

// Key normalizes a section name into the map key used by GeneratedContent.
func Key(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
