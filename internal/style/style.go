// Package style holds the immutable registry of writing styles consumed by
// the rule-based section synthesizer.
package style

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// DefaultName is the style returned for unknown lookups.
const DefaultName = "academic"

//go:embed styles.yaml
var embedded []byte

// Template describes one writing style. Section skeletons are keyed by the
// lower-case section kind and may use {topic}, {topic_lower} and
// {domain_intro}.
type Template struct {
	Name             string            `yaml:"name" json:"name"`
	Tone             string            `yaml:"tone" json:"tone"`
	ComplexityLevel  string            `yaml:"complexity" json:"complexity_level"`
	SectionTemplates map[string]string `yaml:"sections" json:"section_templates,omitempty"`
	AcademicPhrases  []string          `yaml:"phrases" json:"academic_phrases"`
	TransitionWords  []string          `yaml:"transitions" json:"transition_words"`
}

// Skeleton expands the section template for kind, reporting whether one
// exists.
func (t Template) Skeleton(kind, topic, domainIntro string) (string, bool) {
	s, ok := t.SectionTemplates[kind]
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	r := strings.NewReplacer(
		"{topic_lower}", strings.ToLower(topic),
		"{topic}", topic,
		"{domain_intro}", domainIntro,
	)
	return r.Replace(s), true
}

type fileSchema struct {
	Styles []Template `yaml:"styles"`
}

// Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	byName map[string]Template
	names  []string
}

// Default returns a registry built from the embedded styles.
func Default() (*Registry, error) {
	return Parse(embedded)
}

// MustDefault is Default for package initialization paths and tests.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadFile builds a new registry from a YAML file. Existing registries are
// not affected, so a reload swaps the pointer held by the caller.
func LoadFile(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read styles: %w", err)
	}
	r, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates a YAML style document.
func Parse(b []byte) (*Registry, error) {
	var fs fileSchema
	if err := yaml.Unmarshal(b, &fs); err != nil {
		return nil, fmt.Errorf("parse styles: %w", err)
	}
	r := &Registry{byName: make(map[string]Template, len(fs.Styles))}
	for i, t := range fs.Styles {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("style %d: missing name", i)
		}
		if strings.TrimSpace(t.Tone) == "" {
			return nil, fmt.Errorf("style %q: missing tone", name)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("style %q: duplicate", name)
		}
		t.Name = name
		r.byName[name] = t
		r.names = append(r.names, name)
	}
	if _, ok := r.byName[DefaultName]; !ok {
		return nil, errors.New("styles: academic style is required")
	}
	sort.Strings(r.names)
	return r, nil
}

// Lookup returns a copy of the named style, falling back to academic.
func (r *Registry) Lookup(name string) Template {
	t, ok := r.byName[name]
	if !ok {
		t = r.byName[DefaultName]
	}
	return t.clone()
}

func (t Template) clone() Template {
	t.SectionTemplates = maps.Clone(t.SectionTemplates)
	t.AcademicPhrases = slices.Clone(t.AcademicPhrases)
	t.TransitionWords = slices.Clone(t.TransitionWords)
	return t
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names lists the registered styles in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
