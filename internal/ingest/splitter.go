package ingest

import "strings"

// Splitter cuts document text into overlapping chunks sized for
// retrieval. Boundaries prefer paragraph breaks, then line breaks, then
// sentence ends, then spaces, so chunks stay readable.
type Splitter struct {
	ChunkSize int // Target chunk length in bytes
	Overlap   int // Bytes carried over between adjacent chunks
}

const (
	defaultChunkSize = 500
	defaultOverlap   = 50
)

// NewSplitter creates a splitter with the default chunking parameters
func NewSplitter() *Splitter {
	return &Splitter{ChunkSize: defaultChunkSize, Overlap: defaultOverlap}
}

// separators in preference order for choosing a cut point
var separators = []string{"\n\n", "\n", ". ", " "}

// Split cuts text into chunks. Short inputs come back as a single chunk;
// empty input yields no chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	size := s.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	overlap := s.Overlap
	if overlap < 0 || overlap >= size {
		overlap = defaultOverlap
	}

	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			if chunk := strings.TrimSpace(text[start:]); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := cutPoint(text[start:end])
		if cut <= 0 {
			cut = size
		}
		end = start + cut

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - overlap
		if next <= start {
			next = end // Never loop in place
		}
		start = next
	}

	return chunks
}

// cutPoint finds the rightmost preferred separator in window, returning
// the index just past it, or 0 when no separator occurs in the second
// half of the window.
func cutPoint(window string) int {
	// Only accept cuts past the midpoint so chunks stay near full size
	min := len(window) / 2
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx >= min {
			return idx + len(sep)
		}
	}
	return 0
}
