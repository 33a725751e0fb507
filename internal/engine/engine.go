// Package engine generates report content. It prefers the configured AI
// writer and falls back to the rule-based synthesizer for the whole request
// on the first AI failure, so a report never mixes the two.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goreport/internal/llm"
	"github.com/hyperifyio/goreport/internal/quality"
	"github.com/hyperifyio/goreport/internal/sections"
	"github.com/hyperifyio/goreport/internal/synth"
	"github.com/hyperifyio/goreport/internal/topic"
)

// DefaultPacing is the pause between consecutive AI section calls.
const DefaultPacing = 100 * time.Millisecond

// Context defaults used in prompts when the caller leaves a field empty.
const (
	DefaultStudentName = "Student"
	DefaultCollegeName = "University"
	DefaultDepartment  = "Department"
)

// Options configures an Engine. A nil Writer disables the AI path and a nil
// Synth degrades the fallback to placeholder sections.
type Options struct {
	Writer llm.SectionWriter
	Synth  *synth.Synthesizer
	// Pacing overrides DefaultPacing; a negative value disables it.
	Pacing       time.Duration
	ProbeTimeout time.Duration
}

// Request is one generation request.
type Request struct {
	Topic    string
	Sections []string
	Style    string
	Context  llm.ContextFields
}

// Status describes which engines are usable.
type Status struct {
	AIAvailable        bool   `json:"ai_available"`
	RuleBasedAvailable bool   `json:"rule_based_available"`
	PrimaryEngine      string `json:"primary_engine"`
	Provider           string `json:"provider,omitempty"`
	Model              string `json:"model,omitempty"`
}

// Engine is safe for concurrent use; it holds no per-request state.
type Engine struct {
	writer      llm.SectionWriter
	synth       *synth.Synthesizer
	aiAvailable bool
	pacing      time.Duration
}

// New probes the writer once. Probe failures are logged and leave the engine
// on the rule-based path; they are never returned.
func New(ctx context.Context, opts Options) *Engine {
	e := &Engine{writer: opts.Writer, synth: opts.Synth, pacing: opts.Pacing}
	if e.pacing == 0 {
		e.pacing = DefaultPacing
	}
	if e.synth == nil {
		log.Warn().Msg("rule-based synthesizer unavailable; fallback will emit placeholder sections")
	}
	if opts.Writer == nil {
		log.Info().Msg("AI writer not configured; using rule-based generation")
		return e
	}
	e.aiAvailable = true
	if p, ok := opts.Writer.(llm.Prober); ok {
		timeout := opts.ProbeTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := p.Probe(pctx); err != nil {
			log.Warn().Err(err).Msg("AI writer probe failed; using rule-based generation")
			e.aiAvailable = false
		}
	}
	if e.aiAvailable {
		st := e.Status()
		log.Info().Str("provider", st.Provider).Str("model", st.Model).Msg("AI writer available")
	}
	return e
}

// Status reports engine availability.
func (e *Engine) Status() Status {
	s := Status{AIAvailable: e.aiAvailable, RuleBasedAvailable: e.synth != nil}
	switch {
	case e.aiAvailable:
		s.PrimaryEngine = sections.EngineAI
	case e.synth != nil:
		s.PrimaryEngine = sections.EngineRuleBased
	default:
		s.PrimaryEngine = sections.EnginePlaceholder
	}
	if d, ok := e.writer.(llm.Describer); ok {
		s.Provider = d.Provider()
		s.Model = d.ModelName()
	}
	return s
}

// Generate never fails: AI errors fall back to rule-based text and a missing
// synthesizer falls back to placeholders. An empty section list uses the
// topic's suggested sections.
func (e *Engine) Generate(ctx context.Context, req Request) sections.GeneratedContent {
	profile := topic.Classify(req.Topic)
	names := req.Sections
	if len(names) == 0 {
		names = profile.SuggestedSections
	}
	if e.aiAvailable {
		g, err := e.generateAI(ctx, req, names, profile)
		if err == nil {
			return g
		}
		log.Warn().Err(err).Str("topic", req.Topic).Bool("cancelled", cancelled(err)).Msg("AI generation failed; regenerating with rule-based engine")
	}
	if e.synth != nil {
		return e.synth.Generate(req.Topic, names, req.Style)
	}
	return Placeholder(req.Topic, names)
}

func (e *Engine) generateAI(ctx context.Context, req Request, names []string, p topic.Profile) (sections.GeneratedContent, error) {
	fields := withDefaults(req.Context)
	list := make([]sections.ContentSection, 0, len(names))
	for i, name := range names {
		if i > 0 && e.pacing > 0 {
			if err := sleep(ctx, e.pacing); err != nil {
				return sections.GeneratedContent{}, err
			}
		}
		if err := ctx.Err(); err != nil {
			return sections.GeneratedContent{}, err
		}
		body, err := e.writer.WriteSection(ctx, llm.SectionSpec{
			Section:         name,
			Topic:           req.Topic,
			Domain:          p.Domain,
			Context:         fields,
			TargetWordCount: TargetWordCount(name, p.ComplexityLevel),
		})
		if err != nil {
			return sections.GeneratedContent{}, fmt.Errorf("section %d (%s): %w", i+1, name, err)
		}
		if strings.TrimSpace(body) == "" {
			return sections.GeneratedContent{}, fmt.Errorf("section %d (%s): %w", i+1, name, llm.ErrEmptyResponse)
		}
		list = append(list, sections.NewContentSection(name, body, sections.MatchKeywords(body, aiVocabulary(p.Domain), 3)))
	}
	g := sections.NewGeneratedContent(req.Topic, p.ComplexityLevel, sections.EngineAI, list)
	g.QualityScore = quality.ScoreContent(g, quality.AI)
	return g, nil
}

// Placeholder builds minimal non-empty sections for every name.
func Placeholder(topicText string, names []string) sections.GeneratedContent {
	list := make([]sections.ContentSection, 0, len(names))
	for _, name := range names {
		body := fmt.Sprintf("This is a placeholder %s section for the topic: %s. In a complete implementation, this would contain detailed academic content.", strings.ToLower(name), topicText)
		list = append(list, sections.ContentSection{
			Name:              name,
			Body:              body,
			KeyPoints:         []string{"Placeholder content for " + name},
			ExtractedKeywords: []string{"placeholder", "content"},
		})
	}
	g := sections.NewGeneratedContent(topicText, topic.Basic, sections.EnginePlaceholder, list)
	g.QualityScore = 30
	return g
}

func withDefaults(c llm.ContextFields) llm.ContextFields {
	if strings.TrimSpace(c.StudentName) == "" {
		c.StudentName = DefaultStudentName
	}
	if strings.TrimSpace(c.CollegeName) == "" {
		c.CollegeName = DefaultCollegeName
	}
	if strings.TrimSpace(c.Department) == "" {
		c.Department = DefaultDepartment
	}
	return c
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
