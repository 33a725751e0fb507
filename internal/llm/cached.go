package llm

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goreport/internal/cache"
)

// CachedWriter answers repeated section requests from a SectionCache and
// stores fresh output from Inner. A nil Cache passes every call through.
type CachedWriter struct {
	Inner SectionWriter
	Cache *cache.SectionCache
}

func (w *CachedWriter) identity() string {
	if d, ok := w.Inner.(Describer); ok {
		return d.Provider() + "/" + d.ModelName()
	}
	return ""
}

// WriteSection implements SectionWriter.
func (w *CachedWriter) WriteSection(ctx context.Context, spec SectionSpec) (string, error) {
	if w == nil || w.Inner == nil {
		return "", ErrNotConfigured
	}
	if w.Cache == nil {
		return w.Inner.WriteSection(ctx, spec)
	}
	model := w.identity()
	key := cache.Key(model, systemMessage+"\n\n"+BuildPrompt(spec))
	e, ok, err := w.Cache.Lookup(ctx, key)
	if err != nil {
		log.Debug().Err(err).Msg("section cache lookup failed")
	}
	if ok {
		log.Debug().Str("section", spec.Section).Str("model", model).Msg("section cache hit")
		return e.Text, nil
	}
	out, err := w.Inner.WriteSection(ctx, spec)
	if err != nil {
		return "", err
	}
	entry := cache.Entry{Model: model, Topic: spec.Topic, Section: spec.Section, Text: out}
	if err := w.Cache.Store(ctx, key, entry); err != nil {
		log.Warn().Err(err).Msg("section cache store failed")
	}
	return out, nil
}

// Probe forwards to Inner when it can probe.
func (w *CachedWriter) Probe(ctx context.Context) error {
	if p, ok := w.Inner.(Prober); ok {
		return p.Probe(ctx)
	}
	return nil
}

func (w *CachedWriter) Provider() string {
	if d, ok := w.Inner.(Describer); ok {
		return d.Provider()
	}
	return ""
}

func (w *CachedWriter) ModelName() string {
	if d, ok := w.Inner.(Describer); ok {
		return d.ModelName()
	}
	return ""
}

// Close releases Inner when it holds resources.
func (w *CachedWriter) Close() error {
	if c, ok := w.Inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
