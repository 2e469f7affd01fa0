package extract

import (
	"regexp"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// ClaimExtractor decomposes an answer into checkable units: numeric tokens,
// named-entity-like tokens, dated facts, and declarative sentences.
type ClaimExtractor struct {
	numberPatterns []*regexp.Regexp
	entityPatterns []*regexp.Regexp
	datePatterns   []*regexp.Regexp
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{
		numberPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d+\.\d+%?`), // Decimals before integers so "3.14" is one claim
			regexp.MustCompile(`\b\d+%`),
			regexp.MustCompile(`\b\d+\b`),
		},
		entityPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`), // Multi-word proper names
			regexp.MustCompile(`\b[A-Z]{2,}\b`),                      // Acronyms
			regexp.MustCompile(`\b\w+@\w+\.\w+\b`),                   // Emails
			regexp.MustCompile(`https?://[^\s)]+`),                   // URLs
		},
		datePatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
			regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`),
		},
	}
}

// Extract extracts all claims from answer text. Claims are ephemeral and
// recomputed on every call; the extractor holds no state between calls.
func (e *ClaimExtractor) Extract(answer string) []model.Claim {
	var claims []model.Claim

	covered := make([]bool, len(answer))
	for _, p := range e.numberPatterns {
		for _, loc := range p.FindAllStringIndex(answer, -1) {
			if covered[loc[0]] {
				continue // Part of an already-extracted wider match
			}
			for i := loc[0]; i < loc[1]; i++ {
				covered[i] = true
			}
			claims = append(claims, model.Claim{Kind: model.ClaimNumber, Text: answer[loc[0]:loc[1]]})
		}
	}

	for _, p := range e.entityPatterns {
		for _, m := range p.FindAllString(answer, -1) {
			m = strings.TrimRight(m, ".,;:!?")
			if len(m) < 2 {
				continue
			}
			claims = append(claims, model.Claim{Kind: model.ClaimEntity, Text: m})
		}
	}

	for _, p := range e.datePatterns {
		for _, m := range p.FindAllString(answer, -1) {
			claims = append(claims, model.Claim{Kind: model.ClaimDate, Text: m})
		}
	}

	for i, sentence := range SplitSentences(answer) {
		claims = append(claims, model.Claim{
			Kind:     model.ClaimStatement,
			Text:     sentence,
			Sentence: i,
		})
	}

	return dedupeClaims(claims)
}

// SplitSentences splits text into declarative sentences. Sentences at or
// below minSentenceLen are noise (greetings, fragments) and dropped.
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Look ahead to avoid splitting on decimals and abbreviations
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' {
				appendSentence(&sentences, current.String())
				current.Reset()
			}
		}
	}
	appendSentence(&sentences, current.String())

	return sentences
}

const minSentenceLen = 10

func appendSentence(sentences *[]string, raw string) {
	sentence := strings.TrimSpace(raw)
	if len(sentence) > minSentenceLen {
		*sentences = append(*sentences, sentence)
	}
}

// dedupeClaims removes duplicate claims within each kind
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim

	for _, claim := range claims {
		key := string(claim.Kind) + ":" + strings.ToLower(strings.TrimSpace(claim.Text))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}

	return unique
}
