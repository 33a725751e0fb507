package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperifyio/goreport/internal/cache"
)

// Provider names accepted by NewWriter.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config selects and configures the AI provider.
type Config struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	// Temperature applies to the OpenAI-compatible provider.
	Temperature float32
	Gemini      GeminiConfig
	// Cache, when set, wraps the selected writer in a CachedWriter.
	Cache   *cache.SectionCache
	Verbose bool
}

// NewWriter builds the configured writer. ErrNotConfigured means AI
// generation is switched off; other errors are construction failures.
func NewWriter(ctx context.Context, cfg Config) (SectionWriter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderNone:
		return nil, ErrNotConfigured
	case ProviderGemini:
		w, err := NewGeminiWriter(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return withCache(w, cfg.Cache), nil
	case ProviderOpenAI:
		if strings.TrimSpace(cfg.Model) == "" {
			return nil, fmt.Errorf("openai provider: model: %w", ErrNotConfigured)
		}
		return withCache(&OpenAIWriter{
			Client:      NewOpenAIProvider(cfg.BaseURL, cfg.APIKey),
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Verbose:     cfg.Verbose,
		}, cfg.Cache), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func withCache(w SectionWriter, c *cache.SectionCache) SectionWriter {
	if c == nil {
		return w
	}
	return &CachedWriter{Inner: w, Cache: c}
}
