package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIWriter writes sections through any OpenAI-compatible chat endpoint.
type OpenAIWriter struct {
	Client      Client
	Model       string
	Temperature float32
	MaxTokens   int
	// RetryDelay is the pause before the single retry of a failed call.
	RetryDelay time.Duration
	Verbose    bool
}

// WriteSection implements SectionWriter.
func (w *OpenAIWriter) WriteSection(ctx context.Context, spec SectionSpec) (string, error) {
	if w == nil || w.Client == nil || strings.TrimSpace(w.Model) == "" {
		return "", ErrNotConfigured
	}
	user := BuildPrompt(spec)
	if w.Verbose {
		log.Debug().Str("stage", "section").Str("section", spec.Section).Str("model", w.Model).Int("user_len", len(user)).Msg("section prompt")
	}
	req := openai.ChatCompletionRequest{
		Model: w.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: w.Temperature,
		MaxTokens:   w.MaxTokens,
		N:           1,
	}
	resp, err := w.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		// One short retry; cancellation is not retried.
		if ctx.Err() != nil {
			return "", fmt.Errorf("section %q: %w", spec.Section, err)
		}
		if serr := sleepCtx(ctx, w.retryDelay()); serr != nil {
			return "", fmt.Errorf("section %q: %w", spec.Section, serr)
		}
		resp, err = w.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("section %q (after retry): %w", spec.Section, err)
		}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	out := PlainText(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// Probe lists models when the client supports it. Clients without a model
// listing are assumed usable.
func (w *OpenAIWriter) Probe(ctx context.Context) error {
	if w == nil || w.Client == nil || strings.TrimSpace(w.Model) == "" {
		return ErrNotConfigured
	}
	lister, ok := w.Client.(ModelLister)
	if !ok {
		return nil
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if len(models.Models) == 0 {
		return errors.New("list models: endpoint returned zero models")
	}
	return nil
}

func (w *OpenAIWriter) Provider() string  { return ProviderOpenAI }
func (w *OpenAIWriter) ModelName() string { return w.Model }

func (w *OpenAIWriter) retryDelay() time.Duration {
	if w.RetryDelay > 0 {
		return w.RetryDelay
	}
	return 100 * time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
