package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// unsetKey is the sample value shipped in example env files.
const unsetKey = "YOUR_API_KEY_HERE"

// GeminiConfig holds generation parameters for the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
	TopP        float32
	TopK        int32
}

// DefaultGeminiConfig returns the stock generation parameters.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{Model: "gemini-pro", Temperature: 0.7, MaxTokens: 2048, TopP: 0.9, TopK: 40}
}

// Configured reports whether an API key is present.
func (c GeminiConfig) Configured() bool {
	k := strings.TrimSpace(c.APIKey)
	return k != "" && k != unsetKey
}

// contentGenerator is the part of *genai.GenerativeModel used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiWriter writes sections with Google Gemini.
type GeminiWriter struct {
	client *genai.Client
	model  contentGenerator
	info   func(ctx context.Context) error
	name   string
}

// NewGeminiWriter creates the client and model. It returns ErrNotConfigured
// without touching the network when no key is set.
func NewGeminiWriter(ctx context.Context, cfg GeminiConfig) (*GeminiWriter, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiConfig().Model
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetMaxOutputTokens(cfg.MaxTokens)
	model.SetTopP(cfg.TopP)
	model.SetTopK(cfg.TopK)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemMessage)}}
	model.SafetySettings = safetySettings()
	return &GeminiWriter{
		client: client,
		model:  model,
		name:   cfg.Model,
		info: func(ctx context.Context) error {
			_, err := model.Info(ctx)
			return err
		},
	}, nil
}

func safetySettings() []*genai.SafetySetting {
	cats := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	out := make([]*genai.SafetySetting, 0, len(cats))
	for _, c := range cats {
		out = append(out, &genai.SafetySetting{Category: c, Threshold: genai.HarmBlockMediumAndAbove})
	}
	return out
}

// WriteSection implements SectionWriter.
func (g *GeminiWriter) WriteSection(ctx context.Context, spec SectionSpec) (string, error) {
	if g == nil || g.model == nil {
		return "", ErrNotConfigured
	}
	resp, err := g.model.GenerateContent(ctx, genai.Text(BuildPrompt(spec)))
	if err != nil {
		return "", fmt.Errorf("gemini section %q: %w", spec.Section, err)
	}
	out := PlainText(responseText(resp))
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// Probe fetches model metadata once to confirm the key and model name.
func (g *GeminiWriter) Probe(ctx context.Context) error {
	if g == nil || g.model == nil {
		return ErrNotConfigured
	}
	if g.info == nil {
		return nil
	}
	if err := g.info(ctx); err != nil {
		return fmt.Errorf("gemini model info: %w", err)
	}
	return nil
}

func (g *GeminiWriter) Provider() string  { return ProviderGemini }
func (g *GeminiWriter) ModelName() string { return g.name }

// Close releases the underlying client.
func (g *GeminiWriter) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
