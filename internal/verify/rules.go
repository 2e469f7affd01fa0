package verify

import (
	"fmt"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// ruleCheckCount is the number of check categories the rule layer runs.
// The confidence penalty is per category with an issue budget, so one
// unsupported number never zeroes the whole verdict.
const ruleCheckCount = 3

// issuePenalty bounds how much the issue ratio can subtract from the
// rule-layer confidence
const issuePenalty = 0.3

// runRuleChecks performs the deterministic layer: number consistency,
// entity existence, and claim support, over claims extracted from the
// answer. Returns the issues and the rule-layer confidence.
func (e *Engine) runRuleChecks(answer string, evidence []model.EvidenceChunk) ([]string, float64) {
	claims := e.extractor.Extract(answer)

	var issues []string
	issues = append(issues, checkNumbers(claims, evidence)...)
	issues = append(issues, checkEntities(claims, evidence)...)
	issues = append(issues, e.checkClaimSupport(claims, evidence)...)

	confidence := 1.0 - float64(len(issues))/float64(ruleCheckCount)*issuePenalty
	return issues, clamp01(confidence)
}

// checkNumbers flags numeric and dated claims that appear verbatim in no
// evidence chunk
func checkNumbers(claims []model.Claim, evidence []model.EvidenceChunk) []string {
	var issues []string
	for _, claim := range claims {
		if claim.Kind != model.ClaimNumber && claim.Kind != model.ClaimDate {
			continue
		}
		if !anyChunkContains(evidence, claim.Text, false) {
			issues = append(issues, fmt.Sprintf("Number '%s' not found in the retrieved documents", claim.Text))
		}
	}
	return issues
}

// checkEntities flags entity claims that appear (case-insensitively) in no
// evidence chunk
func checkEntities(claims []model.Claim, evidence []model.EvidenceChunk) []string {
	var issues []string
	for _, claim := range claims {
		if claim.Kind != model.ClaimEntity {
			continue
		}
		if !anyChunkContains(evidence, claim.Text, true) {
			issues = append(issues, fmt.Sprintf("Entity '%s' not found in the retrieved documents", claim.Text))
		}
	}
	return issues
}

// minSupportWordLen filters filler words out of the support ratio
const minSupportWordLen = 2

// checkClaimSupport flags declarative sentences whose word-level evidence
// overlap falls below the support threshold
func (e *Engine) checkClaimSupport(claims []model.Claim, evidence []model.EvidenceChunk) []string {
	var issues []string
	for _, claim := range claims {
		if claim.Kind != model.ClaimStatement {
			continue
		}

		words := strings.Fields(claim.Text)
		if len(words) == 0 {
			continue
		}

		supported := 0
		for _, word := range words {
			word = strings.Trim(word, ".,;:!?\"'()")
			if len(word) <= minSupportWordLen {
				continue
			}
			if anyChunkContains(evidence, word, true) {
				supported++
			}
		}

		ratio := float64(supported) / float64(len(words))
		if ratio < e.claimSupportThreshold {
			issues = append(issues, fmt.Sprintf("Statement '%s' has insufficient evidence support (%.2f)", truncate(claim.Text, 50), ratio))
		}
	}
	return issues
}

func anyChunkContains(evidence []model.EvidenceChunk, needle string, fold bool) bool {
	if fold {
		needle = strings.ToLower(needle)
	}
	for _, chunk := range evidence {
		text := chunk.Text
		if fold {
			text = strings.ToLower(text)
		}
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
