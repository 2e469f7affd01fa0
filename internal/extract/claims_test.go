package extract

import (
	"strings"
	"testing"

	"github.com/groundcheck/groundcheck/internal/model"
)

func claimsOfKind(claims []model.Claim, kind model.ClaimKind) []model.Claim {
	var out []model.Claim
	for _, c := range claims {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestClaimExtractor_Numbers(t *testing.T) {
	extractor := NewClaimExtractor()

	claims := extractor.Extract("The model has 768 dimensions and achieves 92.5% accuracy on 3 benchmarks.")

	numbers := claimsOfKind(claims, model.ClaimNumber)
	if len(numbers) != 3 {
		t.Fatalf("Expected 3 number claims, got %d: %v", len(numbers), numbers)
	}

	want := map[string]bool{"768": false, "92.5%": false, "3": false}
	for _, c := range numbers {
		if _, ok := want[c.Text]; !ok {
			t.Errorf("Unexpected number claim %q", c.Text)
		}
		want[c.Text] = true
	}
	for text, found := range want {
		if !found {
			t.Errorf("Expected number claim %q", text)
		}
	}
}

func TestClaimExtractor_DecimalNotSplit(t *testing.T) {
	extractor := NewClaimExtractor()

	claims := extractor.Extract("Pi is approximately 3.14 in this context.")

	numbers := claimsOfKind(claims, model.ClaimNumber)
	if len(numbers) != 1 {
		t.Fatalf("Expected 1 number claim, got %d: %v", len(numbers), numbers)
	}
	if numbers[0].Text != "3.14" {
		t.Errorf("Expected '3.14', got %q", numbers[0].Text)
	}
}

func TestClaimExtractor_Entities(t *testing.T) {
	extractor := NewClaimExtractor()

	claims := extractor.Extract("Guido van Rossum created Python at CWI. Contact info@example.com or see https://python.org for details.")

	entities := claimsOfKind(claims, model.ClaimEntity)

	wantSubstrings := []string{"CWI", "info@example.com", "https://python.org"}
	for _, want := range wantSubstrings {
		found := false
		for _, c := range entities {
			if c.Text == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected entity claim %q, got %v", want, entities)
		}
	}
}

func TestClaimExtractor_Dates(t *testing.T) {
	extractor := NewClaimExtractor()

	claims := extractor.Extract("The release happened on 2023-10-05, announced January 12, 2023 at a conference.")

	dates := claimsOfKind(claims, model.ClaimDate)
	if len(dates) != 2 {
		t.Errorf("Expected 2 date claims, got %d: %v", len(dates), dates)
	}
}

func TestClaimExtractor_Statements(t *testing.T) {
	extractor := NewClaimExtractor()

	claims := extractor.Extract("The embedding dimension is 768. Hi. The model was trained on English text.")

	statements := claimsOfKind(claims, model.ClaimStatement)
	if len(statements) != 2 {
		t.Fatalf("Expected 2 statement claims (short fragment dropped), got %d: %v", len(statements), statements)
	}

	if statements[0].Sentence != 0 || statements[1].Sentence != 1 {
		t.Errorf("Expected sentence indexes 0 and 1, got %d and %d", statements[0].Sentence, statements[1].Sentence)
	}
}

func TestClaimExtractor_Dedupe(t *testing.T) {
	extractor := NewClaimExtractor()

	claims := extractor.Extract("The value 42 appears twice: 42. The acronym NASA and nasa's agency NASA repeat.")

	count42 := 0
	countNASA := 0
	for _, c := range claims {
		if c.Kind == model.ClaimNumber && c.Text == "42" {
			count42++
		}
		if c.Kind == model.ClaimEntity && strings.EqualFold(c.Text, "NASA") {
			countNASA++
		}
	}
	if count42 != 1 {
		t.Errorf("Expected '42' deduplicated to 1 claim, got %d", count42)
	}
	if countNASA != 1 {
		t.Errorf("Expected 'NASA' deduplicated to 1 claim, got %d", countNASA)
	}
}

func TestClaimExtractor_EmptyAnswer(t *testing.T) {
	extractor := NewClaimExtractor()

	claims := extractor.Extract("")
	if len(claims) != 0 {
		t.Errorf("Expected no claims from empty answer, got %d", len(claims))
	}
}

func TestSplitSentences_Terminators(t *testing.T) {
	sentences := SplitSentences("First sentence here. Second one follows! Is this the third? Short.")

	if len(sentences) != 3 {
		t.Fatalf("Expected 3 sentences, got %d: %v", len(sentences), sentences)
	}
	if !strings.HasPrefix(sentences[1], "Second") {
		t.Errorf("Expected second sentence to start with 'Second', got %q", sentences[1])
	}
}

func TestSplitSentences_TrailingWithoutTerminator(t *testing.T) {
	sentences := SplitSentences("A complete sentence. And a trailing fragment without a period")

	if len(sentences) != 2 {
		t.Fatalf("Expected 2 sentences, got %d: %v", len(sentences), sentences)
	}
}
