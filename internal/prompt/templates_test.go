package prompt

import (
	"strings"
	"testing"

	"github.com/groundcheck/groundcheck/internal/model"
)

var testChunks = []model.EvidenceChunk{
	{Text: "The embedding dimension of the model is 768.", Source: map[string]string{"document": "models.md"}, Score: 0.9},
	{Text: "The model was released in 2021 by the lab.", Score: 0.7},
}

func TestInitial_ContainsQueryAndEvidence(t *testing.T) {
	p := Initial("What is the embedding dimension?", testChunks)

	if !strings.Contains(p, "What is the embedding dimension?") {
		t.Error("Expected prompt to contain the query")
	}
	if !strings.Contains(p, "768") {
		t.Error("Expected prompt to contain evidence text")
	}
	if !strings.Contains(p, "models.md") {
		t.Error("Expected prompt to name the source document")
	}
}

func TestVerification_SpecifiesOutputFormat(t *testing.T) {
	p := Verification("The dimension is 768.", testChunks, "What is the dimension?")

	for _, want := range []string{"VERDICT:", "CONFIDENCE:", "ISSUES:", "What is the dimension?"} {
		if !strings.Contains(p, want) {
			t.Errorf("Expected verification prompt to contain %q", want)
		}
	}
}

func TestVerification_OptionalQuery(t *testing.T) {
	p := Verification("The dimension is 768.", testChunks, "")

	if strings.Contains(p, "Original question") {
		t.Error("Expected no question section when query is empty")
	}
}

func TestCorrection_UsesIntentPreset(t *testing.T) {
	issues := []string{"Number '1024' not found in the retrieved documents"}

	fact := Correction("The dimension is 1024.", testChunks, issues, model.IntentFact)
	comparison := Correction("The dimension is 1024.", testChunks, issues, model.IntentComparison)

	if fact == comparison {
		t.Error("Expected different prompts for different intents")
	}
	if !strings.Contains(fact, "fact-checking expert") {
		t.Error("Expected fact preset role in fact correction prompt")
	}
	if !strings.Contains(comparison, "comparison analyst") {
		t.Error("Expected comparison preset role in comparison correction prompt")
	}
}

func TestCorrection_UnknownIntentFallsBackToFact(t *testing.T) {
	issues := []string{"Number '1024' not found in the retrieved documents"}

	p := Correction("answer", testChunks, issues, model.QueryIntent("mystery"))
	if !strings.Contains(p, "fact-checking expert") {
		t.Error("Expected unknown intent to use the fact preset")
	}
}

func TestIssueSummary_LinksEvidence(t *testing.T) {
	issues := []string{"Number '768' not found in the retrieved documents"}

	summary := IssueSummary(issues, testChunks)

	if !strings.Contains(summary, "Issue 1:") {
		t.Error("Expected numbered issue")
	}
	// '768' appears in the first chunk, so it should be cited
	if !strings.Contains(summary, "embedding dimension") {
		t.Errorf("Expected matching evidence snippet in summary, got:\n%s", summary)
	}
}

func TestIssueSummary_NoMatchingEvidence(t *testing.T) {
	issues := []string{"Number '9999' not found in the retrieved documents"}

	summary := IssueSummary(issues, testChunks)

	if !strings.Contains(summary, "Related evidence: none") {
		t.Errorf("Expected 'none' marker for unmatched issue, got:\n%s", summary)
	}
}

func TestIssueSummary_Empty(t *testing.T) {
	if got := IssueSummary(nil, testChunks); got != "No issues found." {
		t.Errorf("Expected fixed no-issue text, got %q", got)
	}
}
