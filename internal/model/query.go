package model

import "strings"

// QueryIntent classifies a query for correction-style selection.
// It never changes what gets verified, only how a rewrite is phrased.
type QueryIntent string

const (
	IntentFact       QueryIntent = "fact"       // Specific facts, data, definitions
	IntentComparison QueryIntent = "comparison" // Differences between entities or methods
	IntentMethod     QueryIntent = "method"     // Procedures, steps, how-to
	IntentOpinion    QueryIntent = "opinion"    // Viewpoints, evaluations, controversies
)

// ParseIntent maps a label to a QueryIntent, defaulting to IntentFact for
// anything unrecognized.
func ParseIntent(label string) QueryIntent {
	switch QueryIntent(strings.ToLower(strings.TrimSpace(label))) {
	case IntentComparison:
		return IntentComparison
	case IntentMethod:
		return IntentMethod
	case IntentOpinion:
		return IntentOpinion
	default:
		return IntentFact
	}
}

// Query is a user question plus its optional intent classification.
type Query struct {
	Text   string      `json:"text"`
	Intent QueryIntent `json:"intent,omitempty"`
}

// NewQuery builds a Query with a normalized intent.
func NewQuery(text, intent string) Query {
	return Query{
		Text:   strings.TrimSpace(text),
		Intent: ParseIntent(intent),
	}
}
