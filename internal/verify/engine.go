// Package verify scores an answer against retrieved evidence. The engine
// runs a deterministic rule-based layer over extracted claims and, when
// configured, a best-effort semantic layer via the answer generator, then
// combines both into a single verdict.
package verify

import (
	"context"
	"fmt"

	"github.com/groundcheck/groundcheck/internal/extract"
	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
)

// Level selects which verification layers run
type Level string

const (
	LevelBasic         Level = "basic"         // Rule-based checks only
	LevelSemantic      Level = "semantic"      // LLM consistency check only
	LevelComprehensive Level = "comprehensive" // Both layers
)

// ParseLevel maps a label to a Level, defaulting to comprehensive
func ParseLevel(label string) Level {
	switch Level(label) {
	case LevelBasic:
		return LevelBasic
	case LevelSemantic:
		return LevelSemantic
	default:
		return LevelComprehensive
	}
}

// Weights for combining the two layers when both ran
const (
	ruleWeight     = 0.6
	semanticWeight = 0.4
)

// Engine verifies answers against evidence. Stateless: every call is a
// pure function of its inputs plus the (possibly nondeterministic)
// semantic layer.
type Engine struct {
	extractor *extract.ClaimExtractor
	generator llm.Provider // Used by the semantic layer; may be nil
	level     Level

	hallucinationThreshold float64
	claimSupportThreshold  float64
}

// NewEngine creates a verification engine. A nil generator downgrades
// semantic and comprehensive levels to rule-based only.
func NewEngine(generator llm.Provider, cfg model.PipelineConfig) *Engine {
	return &Engine{
		extractor:              extract.NewClaimExtractor(),
		generator:              generator,
		level:                  ParseLevel(cfg.VerificationLevel),
		hallucinationThreshold: cfg.HallucinationThreshold,
		claimSupportThreshold:  cfg.ClaimSupportThreshold,
	}
}

// Verify scores the answer against the evidence. The returned error covers
// engine-level failures only (nothing to verify with); layer-level
// failures degrade into the verdict instead. Callers treat an error as
// "issue present" (fail closed).
func (e *Engine) Verify(ctx context.Context, answer string, evidence []model.EvidenceChunk, query string) (*model.VerificationResult, error) {
	if answer == "" {
		return nil, fmt.Errorf("empty answer")
	}

	runRules := e.level == LevelBasic || e.level == LevelComprehensive
	runSemantic := (e.level == LevelSemantic || e.level == LevelComprehensive) && e.generator != nil
	if !runSemantic && !runRules {
		// Semantic-only config without a generator still needs a verdict
		runRules = true
	}

	var issues []string
	var ruleConfidence, semanticConfidence float64
	source := model.VerdictRuleBased

	if runRules {
		ruleIssues, confidence := e.runRuleChecks(answer, evidence)
		issues = append(issues, ruleIssues...)
		ruleConfidence = confidence
	}

	if runSemantic {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		semIssues, confidence := e.runSemanticCheck(ctx, answer, evidence, query)
		issues = append(issues, semIssues...)
		semanticConfidence = confidence
		source = model.VerdictSemantic
	}

	var confidence float64
	switch {
	case runRules && runSemantic:
		confidence = ruleWeight*ruleConfidence + semanticWeight*semanticConfidence
		source = model.VerdictCombined
	case runRules:
		confidence = ruleConfidence
	default:
		confidence = semanticConfidence
	}
	confidence = clamp01(confidence)

	// Pessimistic OR: a discrete issue or low combined confidence each
	// suffice to flag the answer
	hasIssue := len(issues) > 0 || confidence < e.hallucinationThreshold

	return &model.VerificationResult{
		HasIssue:   hasIssue,
		Confidence: confidence,
		Issues:     issues,
		Source:     source,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
