package correct

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
)

type fakeGenerator struct {
	response string
	err      error

	lastPrompt      string
	lastTemperature float64
}

func (f *fakeGenerator) Name() string                         { return "fake" }
func (f *fakeGenerator) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.lastPrompt = req.Prompt
	f.lastTemperature = req.Temperature
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Text: f.response, Model: "fake"}, nil
}

var evidence = []model.EvidenceChunk{
	{Text: "The embedding dimension of the model is 768."},
}

func TestCorrector_RewritesAnswer(t *testing.T) {
	gen := &fakeGenerator{response: "The embedding dimension is 768."}
	corrector := NewCorrector(gen)

	issues := []string{"Number '1024' not found in the retrieved documents"}
	corrected, err := corrector.Correct(context.Background(), "The embedding dimension is 1024.", evidence, issues, model.IntentFact)
	if err != nil {
		t.Fatalf("Correct failed: %v", err)
	}

	if corrected != "The embedding dimension is 768." {
		t.Errorf("Unexpected corrected answer: %q", corrected)
	}
	if gen.lastTemperature != correctionTemperature {
		t.Errorf("Expected temperature %v, got %v", correctionTemperature, gen.lastTemperature)
	}
	if !strings.Contains(gen.lastPrompt, "1024") {
		t.Error("Expected the flawed answer in the prompt")
	}
	if !strings.Contains(gen.lastPrompt, issues[0]) {
		t.Error("Expected the issues in the prompt")
	}
}

func TestCorrector_GeneratorErrorPropagates(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	corrector := NewCorrector(gen)

	_, err := corrector.Correct(context.Background(), "bad answer", evidence, []string{"issue"}, model.IntentFact)
	if err == nil {
		t.Fatal("Expected error from failing generator")
	}
}

func TestCorrector_EmptyResponseIsError(t *testing.T) {
	gen := &fakeGenerator{response: "   \n"}
	corrector := NewCorrector(gen)

	_, err := corrector.Correct(context.Background(), "bad answer", evidence, []string{"issue"}, model.IntentFact)
	if err == nil {
		t.Fatal("Expected error for empty correction")
	}
}

func TestCorrector_NoIssuesIsError(t *testing.T) {
	corrector := NewCorrector(&fakeGenerator{response: "ok"})

	if _, err := corrector.Correct(context.Background(), "fine answer", evidence, nil, model.IntentFact); err == nil {
		t.Error("Expected error when there is nothing to correct")
	}
}

func TestCorrector_NilGeneratorIsError(t *testing.T) {
	corrector := NewCorrector(nil)

	if _, err := corrector.Correct(context.Background(), "answer", evidence, []string{"issue"}, model.IntentFact); err == nil {
		t.Error("Expected error without a generator")
	}
}

func TestCorrector_IntentShapesPrompt(t *testing.T) {
	gen := &fakeGenerator{response: "revised"}
	corrector := NewCorrector(gen)

	if _, err := corrector.Correct(context.Background(), "answer text here", evidence, []string{"issue"}, model.IntentComparison); err != nil {
		t.Fatalf("Correct failed: %v", err)
	}
	comparisonPrompt := gen.lastPrompt

	if _, err := corrector.Correct(context.Background(), "answer text here", evidence, []string{"issue"}, model.IntentFact); err != nil {
		t.Fatalf("Correct failed: %v", err)
	}

	if comparisonPrompt == gen.lastPrompt {
		t.Error("Expected intent to change the correction prompt")
	}
}
