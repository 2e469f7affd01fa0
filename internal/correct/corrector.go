// Package correct rewrites answers that failed verification. The corrector
// asks the generator for a revised answer grounded strictly in the
// retrieved evidence, shaped by the query intent.
package correct

import (
	"context"
	"fmt"
	"strings"

	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/prompt"
)

// correctionTemperature sits above the generation temperature so the
// rewrite can diverge from the flawed original
const correctionTemperature = 0.3

// Corrector produces corrected answers from verification issues
type Corrector struct {
	generator llm.Provider
}

// NewCorrector creates a corrector backed by the given generator
func NewCorrector(generator llm.Provider) *Corrector {
	return &Corrector{generator: generator}
}

// Correct asks the generator to rewrite answer so that the listed issues
// are resolved against the evidence. One attempt, no retries; the caller
// owns the retry loop. Returns an error when the generator fails or
// produces nothing usable, in which case the caller keeps the original
// answer.
func (c *Corrector) Correct(ctx context.Context, answer string, evidence []model.EvidenceChunk, issues []string, intent model.QueryIntent) (string, error) {
	if c.generator == nil {
		return "", fmt.Errorf("no generator configured")
	}
	if len(issues) == 0 {
		return "", fmt.Errorf("nothing to correct")
	}

	req := llm.GenerateRequest{
		Prompt:      prompt.Correction(answer, evidence, issues, intent),
		System:      "You are a careful assistant that corrects factual errors using only the provided documents.",
		Temperature: correctionTemperature,
	}

	resp, err := c.generator.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("correction generation: %w", err)
	}

	corrected := strings.TrimSpace(resp.Text)
	if corrected == "" {
		return "", fmt.Errorf("correction generation returned empty text")
	}
	return corrected, nil
}
