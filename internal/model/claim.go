package model

// ClaimKind categorizes a checkable unit extracted from an answer
type ClaimKind string

const (
	ClaimNumber    ClaimKind = "number"    // Numeric token (integer, decimal, percentage)
	ClaimEntity    ClaimKind = "entity"    // Named-entity-like token (capitalized sequence, acronym, email, URL)
	ClaimDate      ClaimKind = "date"      // Dated fact (ISO date, year)
	ClaimStatement ClaimKind = "statement" // Declarative sentence
)

// Claim is an atomic checkable unit derived from an answer. Claims are
// ephemeral: recomputed on every verification pass, never persisted.
type Claim struct {
	Kind     ClaimKind `json:"kind"`
	Text     string    `json:"text"`
	Sentence int       `json:"sentence,omitempty"` // Sentence index in the answer (0-based), statements only
}
