package verify

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/groundcheck/groundcheck/internal/llm"
	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/prompt"
)

// neutralConfidence is used when the semantic layer cannot produce a
// verdict (transport error or unparseable response)
const neutralConfidence = 0.5

var confidencePattern = regexp.MustCompile(`CONFIDENCE:\s*([01](?:\.\d+)?)`)

// runSemanticCheck asks the generator to assess answer/evidence
// consistency and parses the verdict out of free text. Best-effort: any
// failure yields neutral confidence plus a recorded issue, never an error,
// so a flaky generator cannot crash verification.
func (e *Engine) runSemanticCheck(ctx context.Context, answer string, evidence []model.EvidenceChunk, query string) ([]string, float64) {
	req := llm.GenerateRequest{
		Prompt:      prompt.Verification(answer, evidence, query),
		System:      "You are a meticulous fact-checking assistant. Follow the requested output format exactly.",
		Temperature: 0.1,
	}

	resp, err := e.generator.Generate(ctx, req)
	if err != nil {
		return []string{"Semantic check failed: " + err.Error()}, neutralConfidence
	}

	verdict, confidence, issues, ok := parseSemanticResponse(resp.Text)
	if !ok {
		return []string{"Semantic check returned an unparseable response"}, neutralConfidence
	}

	if verdict {
		return nil, confidence
	}
	if len(issues) == 0 {
		issues = []string{"Semantic check judged the answer inconsistent with the evidence"}
	}
	return issues, confidence
}

// parseSemanticResponse extracts the VERDICT / CONFIDENCE / ISSUES fields.
// Returns ok=false when neither a verdict nor a confidence could be found.
func parseSemanticResponse(text string) (consistent bool, confidence float64, issues []string, ok bool) {
	upper := strings.ToUpper(text)

	haveVerdict := true
	switch {
	case strings.Contains(upper, "INCONSISTENT"):
		consistent = false
	case strings.Contains(upper, "CONSISTENT"):
		consistent = true
	default:
		haveVerdict = false
	}

	confidence = neutralConfidence
	haveConfidence := false
	if m := confidencePattern.FindStringSubmatch(upper); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 1 {
			confidence = v
			haveConfidence = true
		}
	}

	if !haveVerdict && !haveConfidence {
		return false, neutralConfidence, nil, false
	}
	if !haveVerdict {
		// Confidence only: treat the threshold comparison as the verdict
		consistent = confidence >= neutralConfidence
	}

	if !consistent {
		issues = parseIssueLines(text)
	}
	return consistent, confidence, issues, true
}

// parseIssueLines collects the lines following the ISSUES: marker
func parseIssueLines(text string) []string {
	var issues []string
	inIssues := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if upper := strings.ToUpper(trimmed); strings.HasPrefix(upper, "ISSUES:") {
			inIssues = true
			rest := strings.TrimSpace(trimmed[len("ISSUES:"):])
			if rest != "" && !strings.EqualFold(rest, "NONE") {
				issues = append(issues, rest)
			}
			continue
		}
		if !inIssues || trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, "NONE") {
			continue
		}
		issues = append(issues, strings.TrimLeft(trimmed, "-* "))
	}
	return issues
}
