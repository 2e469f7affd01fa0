package model

// EvidenceChunk is the canonical shape for a retrieved span of source text.
// Providers normalize their own payloads (content vs text, distance vs
// certainty) into this struct at the boundary; the core never sees raw
// provider output.
type EvidenceChunk struct {
	Text     string            `json:"text"`               // Chunk content
	Source   map[string]string `json:"source,omitempty"`   // Source metadata (document, section, url, ...)
	Score    float64           `json:"score"`              // Relevance in [0,1], higher is more relevant
}

// EvidenceTexts returns just the text of each chunk, in order.
func EvidenceTexts(chunks []EvidenceChunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
