package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/groundcheck/groundcheck/internal/correct"
	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/verify"
)

type fakeRetriever struct {
	chunks []model.EvidenceChunk
	err    error
	calls  int
}

func (f *fakeRetriever) Name() string { return "fake" }

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int) ([]model.EvidenceChunk, error) {
	f.calls++
	return f.chunks, f.err
}

// scriptedGenerator returns responses in order: the initial answer first,
// then one per correction round
type scriptedGenerator struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedGenerator) Name() string                         { return "scripted" }
func (s *scriptedGenerator) IsAvailable(ctx context.Context) bool { return true }

func (s *scriptedGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	text := s.responses[0]
	s.responses = s.responses[1:]
	return &llm.GenerateResponse{Text: text, Model: "scripted"}, nil
}

var testEvidence = []model.EvidenceChunk{
	{Text: "The embedding dimension of the model is 768.", Score: 0.9},
}

// newTestController wires a controller around fakes with deterministic
// rule-based verification
func newTestController(retriever *fakeRetriever, generator llm.Provider) *Controller {
	cfg := model.DefaultConfig()
	cfg.Pipeline.VerificationLevel = "basic"

	return &Controller{
		retriever: retriever,
		generator: generator,
		engine:    verify.NewEngine(nil, cfg.Pipeline),
		corrector: correct.NewCorrector(generator),
		config:    cfg,
	}
}

func TestController_CleanAnswerPassesFirstRound(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"The embedding dimension is 768."}}
	c := newTestController(&fakeRetriever{chunks: testEvidence}, gen)

	result, err := c.Run(context.Background(), model.NewQuery("What is the embedding dimension?", "fact"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.FinalAnswer != "The embedding dimension is 768." {
		t.Errorf("Unexpected final answer: %q", result.FinalAnswer)
	}
	if result.HasUnresolvedIssue {
		t.Error("Expected no unresolved issue")
	}
	if len(result.Corrections) != 0 {
		t.Errorf("Expected no corrections, got %d", len(result.Corrections))
	}
	if gen.calls != 1 {
		t.Errorf("Expected a single generation call, got %d", gen.calls)
	}
	if result.LastVerdict == nil || result.LastVerdict.HasIssue {
		t.Errorf("Expected a clean last verdict, got %+v", result.LastVerdict)
	}
}

func TestController_CorrectionResolvesIssue(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"The embedding dimension is 1024.", // initial, flagged
		"The embedding dimension is 768.",  // correction, clean
	}}
	c := newTestController(&fakeRetriever{chunks: testEvidence}, gen)

	result, err := c.Run(context.Background(), model.NewQuery("What is the embedding dimension?", "fact"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.InitialAnswer != "The embedding dimension is 1024." {
		t.Errorf("Unexpected initial answer: %q", result.InitialAnswer)
	}
	if result.FinalAnswer != "The embedding dimension is 768." {
		t.Errorf("Unexpected final answer: %q", result.FinalAnswer)
	}
	if result.HasUnresolvedIssue {
		t.Error("Expected the correction to resolve the issue")
	}
	if len(result.Corrections) != 1 {
		t.Fatalf("Expected one correction record, got %d", len(result.Corrections))
	}
	rec := result.Corrections[0]
	if rec.Round != 1 {
		t.Errorf("Expected round 1, got %d", rec.Round)
	}
	if rec.AnswerBefore != "The embedding dimension is 1024." {
		t.Errorf("Unexpected answer_before: %q", rec.AnswerBefore)
	}
	if rec.CorrectionFailed {
		t.Error("Correction should not be marked failed")
	}
	if len(rec.Issues) == 0 {
		t.Error("Expected the flagged issues in the record")
	}
}

func TestController_MaxRoundsBoundsCorrections(t *testing.T) {
	// Every rewrite keeps the unsupported number, so no round resolves it
	gen := &scriptedGenerator{responses: []string{
		"The embedding dimension is 1024.",
		"The embedding dimension is still 1024.",
		"The embedding dimension really is 1024.",
	}}
	c := newTestController(&fakeRetriever{chunks: testEvidence}, gen)

	result, err := c.Run(context.Background(), model.NewQuery("What is the embedding dimension?", "fact"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.HasUnresolvedIssue {
		t.Error("Expected an unresolved issue after exhausting rounds")
	}
	if len(result.Corrections) != c.config.Pipeline.MaxRounds {
		t.Errorf("Expected %d corrections, got %d", c.config.Pipeline.MaxRounds, len(result.Corrections))
	}
	if result.FinalAnswer != "The embedding dimension really is 1024." {
		t.Errorf("Expected the last rewrite as final answer, got %q", result.FinalAnswer)
	}
	for i, rec := range result.Corrections {
		if rec.Round != i+1 {
			t.Errorf("Expected round %d at index %d, got %d", i+1, i, rec.Round)
		}
	}
}

func TestController_EmptyRetrievalRefuses(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"should never be used"}}
	c := newTestController(&fakeRetriever{chunks: nil}, gen)

	result, err := c.Run(context.Background(), model.NewQuery("Unknown topic?", "fact"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.FinalAnswer != RefusalAnswer {
		t.Errorf("Expected refusal, got %q", result.FinalAnswer)
	}
	if result.HasUnresolvedIssue {
		t.Error("A refusal is not an unresolved issue")
	}
	if gen.calls != 0 {
		t.Errorf("Expected no generation on refusal, got %d calls", gen.calls)
	}
	if result.LastVerdict != nil {
		t.Error("Expected no verdict on refusal")
	}
}

func TestController_RetrievalErrorAborts(t *testing.T) {
	c := newTestController(&fakeRetriever{err: errors.New("backend down")}, &scriptedGenerator{})

	if _, err := c.Run(context.Background(), model.NewQuery("anything", "fact")); err == nil {
		t.Fatal("Expected retrieval error to abort the run")
	}
}

func TestController_GenerationErrorAborts(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("model overloaded")}
	c := newTestController(&fakeRetriever{chunks: testEvidence}, gen)

	if _, err := c.Run(context.Background(), model.NewQuery("anything", "fact")); err == nil {
		t.Fatal("Expected generation error to abort the run")
	}
}

func TestController_CorrectionFailureAnnotates(t *testing.T) {
	// Initial answer is flagged and every correction call errors out
	// (script exhausted): each round keeps the answer, the loop still
	// runs to max_rounds, and the final answer carries a caveat
	gen := &scriptedGenerator{responses: []string{"The embedding dimension is 1024."}}
	c := newTestController(&fakeRetriever{chunks: testEvidence}, gen)

	result, err := c.Run(context.Background(), model.NewQuery("What is the embedding dimension?", "fact"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(result.FinalAnswer, "The embedding dimension is 1024.") {
		t.Errorf("Expected the original answer preserved, got %q", result.FinalAnswer)
	}
	if !strings.Contains(result.FinalAnswer, "[Caution:") {
		t.Errorf("Expected a caveat annotation, got %q", result.FinalAnswer)
	}
	if !result.HasUnresolvedIssue {
		t.Error("Expected unresolved issue after failed correction")
	}
	if len(result.Corrections) != c.config.Pipeline.MaxRounds {
		t.Fatalf("Expected %d correction records, got %d", c.config.Pipeline.MaxRounds, len(result.Corrections))
	}
	for i, rec := range result.Corrections {
		if !rec.CorrectionFailed {
			t.Errorf("Expected record %d marked failed, got %+v", i, rec)
		}
		if rec.AnswerBefore != result.InitialAnswer {
			t.Errorf("Expected unchanged answer in record %d, got %q", i, rec.AnswerBefore)
		}
	}
}

func TestController_FailedThenSuccessfulCorrection(t *testing.T) {
	// Round 1's correction returns an empty rewrite (treated as failure),
	// round 2 produces a clean answer
	gen := &scriptedGenerator{responses: []string{
		"The embedding dimension is 1024.",
		"   ",
		"The embedding dimension is 768.",
	}}
	c := newTestController(&fakeRetriever{chunks: testEvidence}, gen)

	result, err := c.Run(context.Background(), model.NewQuery("What is the embedding dimension?", "fact"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.FinalAnswer != "The embedding dimension is 768." {
		t.Errorf("Expected the round-2 rewrite, got %q", result.FinalAnswer)
	}
	if result.HasUnresolvedIssue {
		t.Error("Expected the second round to resolve the issue")
	}
	if len(result.Corrections) != 2 {
		t.Fatalf("Expected 2 correction records, got %d", len(result.Corrections))
	}
	if !result.Corrections[0].CorrectionFailed || result.Corrections[1].CorrectionFailed {
		t.Errorf("Expected failed then successful records, got %+v", result.Corrections)
	}
}

func TestController_CancellationStopsBetweenRounds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestController(&fakeRetriever{chunks: testEvidence}, &scriptedGenerator{responses: []string{"x"}})

	result, err := c.Run(ctx, model.NewQuery("anything", "fact"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if result == nil {
		t.Fatal("Expected the partial result alongside the cancellation error")
	}
	if !result.HasUnresolvedIssue {
		t.Error("Expected a canceled run to be marked unresolved")
	}
	if len(result.Evidence) != len(testEvidence) {
		t.Errorf("Expected retrieved evidence to survive cancellation, got %d chunks", len(result.Evidence))
	}
}

// cancelAfterGenerator cancels the run's context right after producing a
// response, simulating a deadline landing mid-pipeline
type cancelAfterGenerator struct {
	scriptedGenerator
	cancel context.CancelFunc
}

func (g *cancelAfterGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	resp, err := g.scriptedGenerator.Generate(ctx, req)
	g.cancel()
	return resp, err
}

func TestController_CancellationKeepsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &cancelAfterGenerator{
		scriptedGenerator: scriptedGenerator{responses: []string{"The embedding dimension is 1024."}},
		cancel:            cancel,
	}
	c := newTestController(&fakeRetriever{chunks: testEvidence}, gen)

	result, err := c.Run(ctx, model.NewQuery("What is the embedding dimension?", "fact"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if result == nil {
		t.Fatal("Expected the partial result alongside the cancellation error")
	}
	if result.InitialAnswer != "The embedding dimension is 1024." {
		t.Errorf("Expected the initial answer to survive cancellation, got %q", result.InitialAnswer)
	}
	if result.FinalAnswer != result.InitialAnswer {
		t.Errorf("Expected the best answer so far as final, got %q", result.FinalAnswer)
	}
	if !result.HasUnresolvedIssue {
		t.Error("Expected a canceled run to be marked unresolved")
	}
	if result.LastVerdict == nil || !result.LastVerdict.HasIssue {
		t.Errorf("Expected the pre-cancellation verdict to be kept, got %+v", result.LastVerdict)
	}
	found := false
	for _, entry := range result.Trace {
		if strings.Contains(entry.Message, "canceled") {
			found = true
		}
	}
	if !found {
		t.Error("Expected the trace to record the cancellation")
	}
}

// failingVerifier simulates the verification engine breaking internally
type failingVerifier struct {
	calls int
}

func (v *failingVerifier) Verify(ctx context.Context, answer string, evidence []model.EvidenceChunk, query string) (*model.VerificationResult, error) {
	v.calls++
	return nil, errors.New("semantic backend unavailable")
}

func TestController_VerifierFailureFailsClosed(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"The embedding dimension is 768.",
		"rewrite one",
		"rewrite two",
	}}
	c := newTestController(&fakeRetriever{chunks: testEvidence}, gen)
	engine := &failingVerifier{}
	c.engine = engine

	result, err := c.Run(context.Background(), model.NewQuery("What is the embedding dimension?", "fact"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.HasUnresolvedIssue {
		t.Error("Expected a broken verifier to leave the run unresolved")
	}
	if result.LastVerdict.Confidence != failClosedConfidence {
		t.Errorf("Expected confidence %.1f, got %f", failClosedConfidence, result.LastVerdict.Confidence)
	}
	if len(result.LastVerdict.Issues) != 1 || result.LastVerdict.Issues[0] != "Verification could not be completed" {
		t.Errorf("Expected the fail-closed issue, got %v", result.LastVerdict.Issues)
	}
	if result.LastVerdict.Source != model.VerdictRuleBased {
		t.Errorf("Expected rule_based source, got %v", result.LastVerdict.Source)
	}
	if len(result.Corrections) != 2 {
		t.Errorf("Expected the full round budget spent, got %d corrections", len(result.Corrections))
	}
	if engine.calls != 3 {
		t.Errorf("Expected 3 verification attempts, got %d", engine.calls)
	}
	if strings.Contains(result.FinalAnswer, "[Caution") {
		t.Errorf("Expected no caveat after successful rewrites, got %q", result.FinalAnswer)
	}
}

func TestController_EmptyQueryIsError(t *testing.T) {
	c := newTestController(&fakeRetriever{chunks: testEvidence}, &scriptedGenerator{})

	if _, err := c.Run(context.Background(), model.Query{}); err == nil {
		t.Fatal("Expected error for empty query")
	}
}

func TestController_TraceCoversStates(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"The embedding dimension is 1024.",
		"The embedding dimension is 768.",
	}}
	c := newTestController(&fakeRetriever{chunks: testEvidence}, gen)

	result, err := c.Run(context.Background(), model.NewQuery("What is the embedding dimension?", "fact"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, entry := range result.Trace {
		seen[entry.State] = true
		if entry.Time.IsZero() {
			t.Error("Trace entry missing timestamp")
		}
	}
	for _, state := range []State{StateRetrieving, StateGenerating, StateVerifying, StateCorrecting, StateDone} {
		if !seen[string(state)] {
			t.Errorf("Expected state %s in trace", state)
		}
	}

	// The trace never starts mid-pipeline
	if len(result.Trace) == 0 || result.Trace[0].State != string(StateRetrieving) {
		t.Error("Expected trace to open with RETRIEVING")
	}
}

func TestController_RefusalSkipsContextCheck(t *testing.T) {
	// A run that refuses still succeeds even when cancellation lands
	// after retrieval returned empty
	c := newTestController(&fakeRetriever{chunks: nil}, &scriptedGenerator{})

	result, err := c.Run(context.Background(), model.NewQuery("anything", "fact"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.FinalAnswer != RefusalAnswer {
		t.Errorf("Expected refusal, got %q", result.FinalAnswer)
	}
}
