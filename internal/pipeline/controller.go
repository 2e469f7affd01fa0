// Package pipeline orchestrates one query through the full
// retrieve / generate / verify / correct cycle and assembles the terminal
// result with its trace log.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/groundcheck/groundcheck/internal/correct"
	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/prompt"
	"github.com/groundcheck/groundcheck/internal/retrieval"
	"github.com/groundcheck/groundcheck/internal/verify"
)

// State labels the phase a pipeline run is in. States appear in the trace
// log and never overlap; a run is in exactly one state at a time.
type State string

const (
	StateRetrieving State = "RETRIEVING"
	StateGenerating State = "GENERATING"
	StateVerifying  State = "VERIFYING"
	StateCorrecting State = "CORRECTING"
	StateDone       State = "DONE"
)

// RefusalAnswer is returned verbatim when retrieval produces no evidence.
// A refusal skips generation and verification entirely.
const RefusalAnswer = "I cannot answer this question: no relevant documents were found in the knowledge base."

// failClosedConfidence is assigned when verification itself fails and the
// answer must be treated as suspect
const failClosedConfidence = 0.5

// verifier is the slice of the verification engine the controller uses.
// Injected like the retriever and generator so failure handling is
// observable.
type verifier interface {
	Verify(ctx context.Context, answer string, evidence []model.EvidenceChunk, query string) (*model.VerificationResult, error)
}

// Controller runs queries through the pipeline. Safe for concurrent use:
// all per-run state lives in the run itself.
type Controller struct {
	retriever retrieval.Provider
	generator llm.Provider
	engine    verifier
	corrector *correct.Corrector
	config    *model.Config
}

// NewController wires a controller from configuration. The LLM provider is
// mandatory; without it no answer can be generated.
func NewController(cfg *model.Config) (*Controller, error) {
	generator, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if generator == nil {
		return nil, fmt.Errorf("llm provider is required (set llm.provider)")
	}

	retriever, err := retrieval.New(cfg.Retrieval, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("retrieval provider: %w", err)
	}

	return &Controller{
		retriever: retriever,
		generator: generator,
		engine:    verify.NewEngine(generator, cfg.Pipeline),
		corrector: correct.NewCorrector(generator),
		config:    cfg,
	}, nil
}

// run accumulates the state of one query's trip through the pipeline
type run struct {
	result *model.PipelineResult
}

func (r *run) trace(state State, format string, args ...interface{}) {
	r.result.Trace = append(r.result.Trace, model.TraceEntry{
		Time:    time.Now().UTC(),
		State:   string(state),
		Message: fmt.Sprintf(format, args...),
	})
}

// canceled finalizes a run cut short by its context. Whatever was
// assembled so far (evidence, answers, correction history, trace) stays in
// the result, marked unresolved because verification never finished.
func (r *run) canceled(state State, answer string, err error) *model.PipelineResult {
	if answer != "" {
		r.result.FinalAnswer = answer
	}
	r.result.HasUnresolvedIssue = true
	r.trace(state, "canceled before completion: %v", err)
	return r.result
}

// Run processes one query to completion. The returned error covers
// infrastructure failures (retrieval transport, generation transport,
// cancellation); verification and correction failures never error out,
// they degrade into the result instead. A canceled run returns both the
// context error and the partial result assembled so far, with
// HasUnresolvedIssue set.
func (c *Controller) Run(ctx context.Context, query model.Query) (*model.PipelineResult, error) {
	if query.Text == "" {
		return nil, fmt.Errorf("empty query")
	}

	r := &run{result: &model.PipelineResult{Query: query}}

	// RETRIEVING
	r.trace(StateRetrieving, "retrieving top %d chunks", c.config.Retrieval.TopK)
	evidence, err := c.retriever.Retrieve(ctx, query.Text, c.config.Retrieval.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	r.result.Evidence = evidence

	if len(evidence) == 0 {
		r.trace(StateDone, "no evidence retrieved, refusing to answer")
		r.result.FinalAnswer = RefusalAnswer
		r.result.InitialAnswer = RefusalAnswer
		return r.result, nil
	}
	r.trace(StateRetrieving, "retrieved %d chunks", len(evidence))

	if err := ctx.Err(); err != nil {
		return r.canceled(StateRetrieving, "", err), err
	}

	// GENERATING
	r.trace(StateGenerating, "generating initial answer")
	answer, err := c.generate(ctx, query, evidence)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	r.result.InitialAnswer = answer

	// VERIFYING with bounded correction rounds. A failed correction keeps
	// the answer as is but still consumes its round: re-verification of
	// unchanged content can pass when the semantic layer runs, and the
	// advancing counter keeps a permanently failing corrector from
	// looping forever.
	maxRounds := c.config.Pipeline.MaxRounds
	verdict := c.verifyClosed(ctx, r, answer, evidence, query.Text)
	lastCorrectionFailed := false

	for round := 1; verdict.HasIssue && round <= maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			r.result.LastVerdict = verdict
			return r.canceled(StateVerifying, answer, err), err
		}

		r.trace(StateCorrecting, "round %d: correcting %d issue(s)", round, len(verdict.Issues))
		record := model.CorrectionRecord{
			Round:        round,
			Issues:       verdict.Issues,
			AnswerBefore: answer,
		}

		corrected, err := c.corrector.Correct(ctx, answer, evidence, verdict.Issues, query.Intent)
		if err != nil {
			r.trace(StateCorrecting, "round %d: correction failed, keeping answer: %v", round, err)
			record.CorrectionFailed = true
			lastCorrectionFailed = true
		} else {
			answer = corrected
			lastCorrectionFailed = false
		}
		r.result.Corrections = append(r.result.Corrections, record)

		if err := ctx.Err(); err != nil {
			r.result.LastVerdict = verdict
			return r.canceled(StateCorrecting, answer, err), err
		}
		verdict = c.verifyClosed(ctx, r, answer, evidence, query.Text)
	}

	if verdict.HasIssue && lastCorrectionFailed {
		answer = annotate(answer, verdict.Issues)
	}
	r.result.FinalAnswer = answer
	r.result.LastVerdict = verdict
	r.result.HasUnresolvedIssue = verdict.HasIssue
	r.trace(StateDone, "finished: confidence %.2f, unresolved=%v", verdict.Confidence, verdict.HasIssue)

	return r.result, nil
}

// generate produces an answer grounded in the evidence
func (c *Controller) generate(ctx context.Context, query model.Query, evidence []model.EvidenceChunk) (string, error) {
	resp, err := c.generator.Generate(ctx, llm.GenerateRequest{
		Prompt:      prompt.Initial(query.Text, evidence),
		System:      "You are a careful assistant that answers strictly from the provided documents.",
		Temperature: c.config.LLM.Temperature,
	})
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(resp.Text)
	if answer == "" {
		return "", fmt.Errorf("provider returned an empty answer")
	}
	return answer, nil
}

// verifyClosed runs verification and fails closed: an engine error marks
// the answer as having issues at neutral confidence instead of aborting
// the run.
func (c *Controller) verifyClosed(ctx context.Context, r *run, answer string, evidence []model.EvidenceChunk, query string) *model.VerificationResult {
	r.trace(StateVerifying, "verifying answer (%d chars)", len(answer))
	verdict, err := c.engine.Verify(ctx, answer, evidence, query)
	if err != nil {
		r.trace(StateVerifying, "verification failed, treating answer as suspect: %v", err)
		return &model.VerificationResult{
			HasIssue:   true,
			Confidence: failClosedConfidence,
			Issues:     []string{"Verification could not be completed"},
			Source:     model.VerdictRuleBased,
		}
	}
	r.trace(StateVerifying, "verdict: issues=%d confidence=%.2f", len(verdict.Issues), verdict.Confidence)
	return verdict
}

// annotate appends a caveat to an answer whose issues could not be
// corrected, keeping the issue list visible to the reader
func annotate(answer string, issues []string) string {
	var b strings.Builder
	b.WriteString(answer)
	b.WriteString("\n\n[Caution: the following could not be verified against the retrieved documents")
	for _, issue := range issues {
		b.WriteString("\n  - ")
		b.WriteString(issue)
	}
	b.WriteString("]")
	return b.String()
}
