// Package llm is the AI side of section generation: a provider-neutral
// SectionWriter, its Gemini and OpenAI-compatible implementations, the
// academic prompt and cleanup of model markdown into plain text.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured marks a writer that cannot be used at all, for
	// example a missing API key.
	ErrNotConfigured = errors.New("llm: not configured")
	// ErrEmptyResponse is returned when the model produced no usable text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// ContextFields carries the author details woven into prompts.
type ContextFields struct {
	StudentName string `json:"student_name,omitempty"`
	CollegeName string `json:"college_name,omitempty"`
	Department  string `json:"department,omitempty"`
}

// SectionSpec is one request for section text.
type SectionSpec struct {
	Section         string
	Topic           string
	Domain          string
	Context         ContextFields
	TargetWordCount int
}

// SectionWriter produces the body text of one report section.
type SectionWriter interface {
	WriteSection(ctx context.Context, spec SectionSpec) (string, error)
}

// Prober is implemented by writers that can verify their configuration
// before first use.
type Prober interface {
	Probe(ctx context.Context) error
}

// Describer reports provider and model names for status output.
type Describer interface {
	Provider() string
	ModelName() string
}
