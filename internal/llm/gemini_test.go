package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

type fakeGenerator struct {
	parts []genai.Part
	err   error
	got   string
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if t, ok := parts[0].(genai.Text); ok {
			f.got = string(t)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: f.parts}}},
	}, nil
}

func TestGeminiWriter_JoinsTextParts(t *testing.T) {
	fg := &fakeGenerator{parts: []genai.Part{genai.Text("Results *show* "), genai.Text("gains.")}}
	w := &GeminiWriter{model: fg, name: "gemini-pro"}
	out, err := w.WriteSection(context.Background(), SectionSpec{Section: "Results", Topic: "Solar"})
	if err != nil {
		t.Fatalf("WriteSection: %v", err)
	}
	if out != "Results show gains." {
		t.Fatalf("out = %q", out)
	}
	if !strings.Contains(fg.got, "Present findings and analysis") {
		t.Fatalf("results guidance missing from prompt:\n%s", fg.got)
	}
}

func TestGeminiWriter_Errors(t *testing.T) {
	w := &GeminiWriter{model: &fakeGenerator{err: errors.New("quota")}}
	if _, err := w.WriteSection(context.Background(), SectionSpec{Section: "Introduction"}); err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("expected wrapped quota error, got %v", err)
	}
	w = &GeminiWriter{model: &fakeGenerator{}}
	if _, err := w.WriteSection(context.Background(), SectionSpec{}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGeminiWriter_Probe(t *testing.T) {
	var nilWriter *GeminiWriter
	if err := nilWriter.Probe(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("nil writer probe: %v", err)
	}
	w := &GeminiWriter{model: &fakeGenerator{}, info: func(context.Context) error { return errors.New("bad key") }}
	if err := w.Probe(context.Background()); err == nil {
		t.Fatalf("expected probe error")
	}
	w.info = func(context.Context) error { return nil }
	if err := w.Probe(context.Background()); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestGeminiConfig_Configured(t *testing.T) {
	if (GeminiConfig{}).Configured() || (GeminiConfig{APIKey: "YOUR_API_KEY_HERE"}).Configured() {
		t.Fatalf("empty and placeholder keys must be unconfigured")
	}
	if !(GeminiConfig{APIKey: "abc"}).Configured() {
		t.Fatalf("real key should be configured")
	}
	d := DefaultGeminiConfig()
	if d.Model != "gemini-pro" || d.MaxTokens != 2048 || d.TopK != 40 {
		t.Fatalf("defaults = %+v", d)
	}
}
