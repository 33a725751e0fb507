package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/goreport/internal/llm"
	"github.com/hyperifyio/goreport/internal/sections"
	"github.com/hyperifyio/goreport/internal/style"
	"github.com/hyperifyio/goreport/internal/synth"
	"github.com/hyperifyio/goreport/internal/topic"
)

type fakeWriter struct {
	failAt   int // 1-based call index that fails; 0 never fails
	empty    bool
	probeErr error
	calls    int
	specs    []llm.SectionSpec
}

func (f *fakeWriter) WriteSection(ctx context.Context, spec llm.SectionSpec) (string, error) {
	f.calls++
	f.specs = append(f.specs, spec)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.failAt == f.calls {
		return "", errors.New("quota exceeded")
	}
	if f.empty {
		return "  ", nil
	}
	return "AI text about " + spec.Topic + " and its data. Second sentence on system performance. Third.", nil
}

func (f *fakeWriter) Probe(ctx context.Context) error { return f.probeErr }
func (f *fakeWriter) Provider() string                { return "fake" }
func (f *fakeWriter) ModelName() string               { return "fake-1" }

var fiveSections = []string{"Introduction", "Objectives", "Methodology", "Results", "Conclusion"}

func newSynth(t *testing.T) *synth.Synthesizer {
	t.Helper()
	s, err := synth.New(style.MustDefault())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func checkWordCounts(t *testing.T, g sections.GeneratedContent) {
	t.Helper()
	sum := 0
	for _, s := range g.Sections {
		if s.WordCount() != len(strings.Fields(s.Body)) {
			t.Fatalf("section %s word count mismatch", s.Name)
		}
		sum += s.WordCount()
	}
	if g.OverallWordCount() != sum {
		t.Fatalf("overall %d != %d", g.OverallWordCount(), sum)
	}
}

func TestGenerate_AIPath(t *testing.T) {
	fw := &fakeWriter{}
	e := New(context.Background(), Options{Writer: fw, Synth: newSynth(t), Pacing: -1})
	g := e.Generate(context.Background(), Request{Topic: "Machine Learning Algorithm Optimization", Sections: fiveSections, Context: llm.ContextFields{StudentName: "Ada"}})
	if g.Engine != sections.EngineAI {
		t.Fatalf("engine = %q", g.Engine)
	}
	if len(g.Sections) != 5 || fw.calls != 5 {
		t.Fatalf("sections=%d calls=%d", len(g.Sections), fw.calls)
	}
	checkWordCounts(t, g)
	for _, s := range g.Sections {
		if len(s.ExtractedKeywords) > 3 {
			t.Fatalf("AI keywords capped at 3: %v", s.ExtractedKeywords)
		}
		if len(s.KeyPoints) != 3 {
			t.Fatalf("key points = %v", s.KeyPoints)
		}
	}
	first := fw.specs[0]
	if first.Domain != topic.ComputerScience || first.TargetWordCount != 300 {
		t.Fatalf("unexpected spec %+v", first)
	}
	if first.Context.StudentName != "Ada" || first.Context.CollegeName != DefaultCollegeName || first.Context.Department != DefaultDepartment {
		t.Fatalf("context defaults not applied: %+v", first.Context)
	}
	if fw.specs[2].TargetWordCount != 350 {
		t.Fatalf("methodology target = %d", fw.specs[2].TargetWordCount)
	}
}

// The writer fails on the second of five sections: every section must come
// from the rule-based engine.
func TestGenerate_FailureMidSequenceFallsBackWholly(t *testing.T) {
	fw := &fakeWriter{failAt: 2}
	s := newSynth(t)
	e := New(context.Background(), Options{Writer: fw, Synth: s, Pacing: -1})
	req := Request{Topic: "Bridge Design", Sections: fiveSections, Style: "academic"}
	g := e.Generate(context.Background(), req)
	if g.Engine != sections.EngineRuleBased {
		t.Fatalf("engine = %q", g.Engine)
	}
	if fw.calls != 2 {
		t.Fatalf("writer should stop after the failure, calls=%d", fw.calls)
	}
	want := s.Generate(req.Topic, req.Sections, req.Style)
	if len(g.Sections) != 5 {
		t.Fatalf("sections = %d", len(g.Sections))
	}
	for k, sec := range g.Sections {
		if strings.HasPrefix(sec.Body, "AI text") {
			t.Fatalf("section %s kept AI text", k)
		}
		if sec.Body != want.Sections[k].Body {
			t.Fatalf("section %s differs from rule-based output", k)
		}
	}
	checkWordCounts(t, g)
}

func TestGenerate_EmptyAIResponseFallsBack(t *testing.T) {
	e := New(context.Background(), Options{Writer: &fakeWriter{empty: true}, Synth: newSynth(t), Pacing: -1})
	if g := e.Generate(context.Background(), Request{Topic: "x", Sections: fiveSections}); g.Engine != sections.EngineRuleBased {
		t.Fatalf("engine = %q", g.Engine)
	}
}

func TestGenerate_CancellationFallsBack(t *testing.T) {
	fw := &fakeWriter{}
	e := New(context.Background(), Options{Writer: fw, Synth: newSynth(t), Pacing: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	done := make(chan sections.GeneratedContent, 1)
	go func() { done <- e.Generate(ctx, Request{Topic: "Retail Marketing", Sections: fiveSections}) }()
	select {
	case g := <-done:
		if g.Engine != sections.EngineRuleBased || len(g.Sections) != 5 {
			t.Fatalf("engine=%q sections=%d", g.Engine, len(g.Sections))
		}
		if fw.calls != 1 {
			t.Fatalf("calls = %d", fw.calls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not interrupt pacing")
	}
}

func TestNew_ProbeFailureDisablesAI(t *testing.T) {
	fw := &fakeWriter{probeErr: errors.New("bad key")}
	e := New(context.Background(), Options{Writer: fw, Synth: newSynth(t)})
	st := e.Status()
	if st.AIAvailable || st.PrimaryEngine != sections.EngineRuleBased || !st.RuleBasedAvailable {
		t.Fatalf("status = %+v", st)
	}
	e.Generate(context.Background(), Request{Topic: "x", Sections: fiveSections})
	if fw.calls != 0 {
		t.Fatalf("writer must not be called after failed probe")
	}
}

func TestGenerate_NoWriterUsesRuleBased(t *testing.T) {
	e := New(context.Background(), Options{Synth: newSynth(t)})
	g := e.Generate(context.Background(), Request{Topic: "Cell Biology"})
	if g.Engine != sections.EngineRuleBased {
		t.Fatalf("engine = %q", g.Engine)
	}
	if len(g.Sections) != 8 {
		t.Fatalf("empty section list should use suggested sections, got %d", len(g.Sections))
	}
}

func TestGenerate_NoSynthesizerEmitsPlaceholders(t *testing.T) {
	for _, w := range []llm.SectionWriter{nil, &fakeWriter{failAt: 1}} {
		e := New(context.Background(), Options{Writer: w, Pacing: -1})
		g := e.Generate(context.Background(), Request{Topic: "Quantum Dots", Sections: fiveSections})
		if g.Engine != sections.EnginePlaceholder || g.QualityScore != 30 || g.AcademicLevel != topic.Basic {
			t.Fatalf("unexpected placeholder content: engine=%q score=%v level=%q", g.Engine, g.QualityScore, g.AcademicLevel)
		}
		if len(g.Sections) != 5 {
			t.Fatalf("sections = %d", len(g.Sections))
		}
		for _, s := range g.Sections {
			if !strings.Contains(s.Body, "Quantum Dots") || s.WordCount() == 0 {
				t.Fatalf("bad placeholder %q", s.Body)
			}
		}
		checkWordCounts(t, g)
	}
}

func TestStatus_ReportsProvider(t *testing.T) {
	e := New(context.Background(), Options{Writer: &fakeWriter{}, Synth: newSynth(t)})
	st := e.Status()
	if !st.AIAvailable || st.PrimaryEngine != sections.EngineAI || st.Provider != "fake" || st.Model != "fake-1" {
		t.Fatalf("status = %+v", st)
	}
	if got := New(context.Background(), Options{}).Status().PrimaryEngine; got != sections.EnginePlaceholder {
		t.Fatalf("primary = %q", got)
	}
}

func TestGenerate_PacingBetweenCalls(t *testing.T) {
	e := New(context.Background(), Options{Writer: &fakeWriter{}, Synth: newSynth(t), Pacing: 20 * time.Millisecond})
	start := time.Now()
	e.Generate(context.Background(), Request{Topic: "x", Sections: []string{"a", "b", "c"}})
	if el := time.Since(start); el < 40*time.Millisecond {
		t.Fatalf("expected two pacing delays, elapsed %v", el)
	}
}

func TestTargetWordCount(t *testing.T) {
	cases := []struct {
		section, level string
		want           int
	}{
		{"Introduction", topic.Basic, 200},
		{"Objectives", topic.Advanced, 250},
		{"Research Methodology", topic.Advanced, 500},
		{"Results", topic.Intermediate, 300},
		{"Conclusion", topic.Basic, 150},
		{"References", topic.Advanced, 200},
		{"System Design", topic.Advanced, 250},
		{"Introduction", "unknown", 250},
	}
	for _, tc := range cases {
		if got := TargetWordCount(tc.section, tc.level); got != tc.want {
			t.Fatalf("%s/%s = %d want %d", tc.section, tc.level, got, tc.want)
		}
	}
}
