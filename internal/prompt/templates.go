// Package prompt builds the prompts used across the pipeline: initial
// generation, semantic verification, and intent-specific correction.
// All builders are pure functions of their inputs.
package prompt

import (
	"fmt"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

const snippetLen = 200

// Initial builds the prompt for the first answer generation.
func Initial(query string, chunks []model.EvidenceChunk) string {
	var b strings.Builder

	b.WriteString("Answer the question using ONLY the reference documents below. ")
	b.WriteString("If the documents do not contain the answer, say so explicitly instead of guessing.\n\n")
	b.WriteString("Reference documents:\n")
	writeChunks(&b, chunks, 0)

	fmt.Fprintf(&b, "\nQuestion: %s\n\nAnswer:", query)
	return b.String()
}

// Verification builds the prompt for the semantic consistency check.
// The response is parsed by verify.parseSemanticResponse, so the expected
// output format is spelled out here.
func Verification(answer string, chunks []model.EvidenceChunk, query string) string {
	var b strings.Builder

	b.WriteString("As a fact-checking expert, assess whether the answer below is consistent with the reference documents.\n\n")
	if query != "" {
		fmt.Fprintf(&b, "Original question: %s\n\n", query)
	}
	fmt.Fprintf(&b, "Answer to check:\n%s\n\nReference documents:\n", answer)
	writeChunks(&b, chunks, 0)

	b.WriteString(`
Check the following:
1. Are the factual statements consistent with the documents?
2. Does the answer contain information the documents never mention?
3. Are numbers, dates, and named entities accurate?

Respond in exactly this format:
VERDICT: CONSISTENT or INCONSISTENT
CONFIDENCE: a number between 0.0 and 1.0
ISSUES: one line per problem found, or NONE
`)
	return b.String()
}

// correctionPreset is the intent-specific framing for a correction prompt.
type correctionPreset struct {
	role       string
	directives string
}

// presets is a total mapping: every QueryIntent has an entry, and lookups
// fall back to IntentFact.
var presets = map[model.QueryIntent]correctionPreset{
	model.IntentFact: {
		role: "As a fact-checking expert, rewrite the answer so that it is accurate.",
		directives: `1. Base every statement strictly on the reference documents; remove unsupported content.
2. Keep the style objective, accurate and concise.
3. Where a statement cannot be verified, state that limitation explicitly rather than omitting it silently.
4. Prefer well-supported evidence and point out contradictions.
5. Keep the answer complete and coherent.`,
	},
	model.IntentComparison: {
		role: "As a comparison analyst, rewrite the answer into an accurate, balanced comparison.",
		directives: `1. Keep the comparison dimensions complete and balanced.
2. Ground every point of comparison in the reference documents.
3. Present strengths and weaknesses of each side objectively.
4. Flag comparison points that lack sufficient evidence as uncertain rather than dropping them.
5. Only draw conclusions the evidence supports.`,
	},
	model.IntentMethod: {
		role: "As a how-to guide author, rewrite the answer into an accurate, actionable set of steps.",
		directives: `1. Keep steps feasible, correct and safe.
2. Present the steps clearly and in order.
3. Fix or remove steps the reference documents contradict.
4. Include necessary caveats and common pitfalls.
5. Mark steps that lack evidence support as unverified.`,
	},
	model.IntentOpinion: {
		role: "As a survey writer, rewrite the answer into a balanced summary of viewpoints.",
		directives: `1. Present the different positions fully and without bias.
2. Attribute viewpoints to the reference documents that express them.
3. Separate factual content from opinion clearly.
4. Mark viewpoints without evidence support as contested.
5. Only synthesize trends the evidence supports.`,
	},
}

// Correction builds the rewrite prompt for one correction round. The issue
// summary links each issue to up to two matching evidence snippets so the
// generator can see what the documents actually say.
func Correction(answer string, chunks []model.EvidenceChunk, issues []string, intent model.QueryIntent) string {
	preset, ok := presets[intent]
	if !ok {
		preset = presets[model.IntentFact]
	}

	var b strings.Builder
	b.WriteString(preset.role)
	b.WriteString("\n\nOriginal answer:\n")
	b.WriteString(answer)
	b.WriteString("\n\nVerification findings:\n")
	b.WriteString(IssueSummary(issues, chunks))
	b.WriteString("\n\nReference documents:\n")
	writeChunks(&b, chunks, 0)
	b.WriteString("\nRewrite requirements:\n")
	b.WriteString(preset.directives)
	b.WriteString("\n\nRemove unsupported content; where uncertainty remains, flag it explicitly instead of omitting it.\n\nCorrected answer:")
	return b.String()
}

// IssueSummary renders issues with up to two evidence snippets each.
func IssueSummary(issues []string, chunks []model.EvidenceChunk) string {
	if len(issues) == 0 {
		return "No issues found."
	}

	var b strings.Builder
	for i, issue := range issues {
		fmt.Fprintf(&b, "Issue %d: %s\n", i+1, issue)

		matches := matchingChunks(issue, chunks, 2)
		if len(matches) == 0 {
			b.WriteString("Related evidence: none\n")
		} else {
			b.WriteString("Related evidence:\n")
			writeChunks(&b, matches, snippetLen)
		}
		b.WriteString("---\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// matchingChunks returns up to max chunks sharing a quoted token with the
// issue text. Issues quote the offending token in single quotes.
func matchingChunks(issue string, chunks []model.EvidenceChunk, max int) []model.EvidenceChunk {
	token := quotedToken(issue)
	if token == "" {
		return nil
	}

	var out []model.EvidenceChunk
	for _, c := range chunks {
		if strings.Contains(strings.ToLower(c.Text), strings.ToLower(token)) {
			out = append(out, c)
			if len(out) == max {
				break
			}
		}
	}
	return out
}

func quotedToken(issue string) string {
	start := strings.Index(issue, "'")
	if start < 0 {
		return ""
	}
	end := strings.Index(issue[start+1:], "'")
	if end < 0 {
		return ""
	}
	return issue[start+1 : start+1+end]
}

// writeChunks renders chunks as numbered document sections. A non-zero
// truncate limits each chunk's text.
func writeChunks(b *strings.Builder, chunks []model.EvidenceChunk, truncate int) {
	for i, c := range chunks {
		text := c.Text
		if truncate > 0 && len(text) > truncate {
			text = text[:truncate] + "..."
		}
		fmt.Fprintf(b, "Document %d", i+1)
		if src := c.Source["document"]; src != "" {
			fmt.Fprintf(b, " (%s)", src)
		}
		fmt.Fprintf(b, ":\n%s\n", text)
	}
}
