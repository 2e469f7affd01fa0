package retrieval

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// LocalStore is an in-memory evidence provider over a JSONL corpus file
// (one chunk per line, as written by the ingest command). Relevance is the
// fraction of query tokens found in a chunk, which keeps the provider
// deterministic and dependency-free for offline runs and experiments.
type LocalStore struct {
	chunks []model.EvidenceChunk
}

// corpusLine is the on-disk shape of one corpus chunk
type corpusLine struct {
	Text   string            `json:"text"`
	Source map[string]string `json:"source,omitempty"`
}

// NewLocalStore loads the corpus file into memory. A missing file yields an
// empty store, not an error: retrieval from an empty store is a valid
// zero-chunk response.
func NewLocalStore(path string) (*LocalStore, error) {
	store := &LocalStore{}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var cl corpusLine
		if err := json.Unmarshal([]byte(line), &cl); err != nil {
			return nil, fmt.Errorf("parse corpus line %d: %w", lineNo, err)
		}
		if cl.Text == "" {
			continue
		}
		store.chunks = append(store.chunks, model.EvidenceChunk{
			Text:   cl.Text,
			Source: cl.Source,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	return store, nil
}

// NewLocalStoreFromChunks builds a store directly from chunks (tests,
// programmatic use).
func NewLocalStoreFromChunks(chunks []model.EvidenceChunk) *LocalStore {
	return &LocalStore{chunks: chunks}
}

// Name returns the provider name
func (s *LocalStore) Name() string {
	return "local"
}

// Len returns the number of chunks in the store
func (s *LocalStore) Len() int {
	return len(s.chunks)
}

// Retrieve scores every chunk by query-token overlap and returns the topK
// best, highest score first. Chunks with zero overlap are never returned.
func (s *LocalStore) Retrieve(ctx context.Context, query string, topK int) ([]model.EvidenceChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 || len(s.chunks) == 0 {
		return nil, nil
	}

	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	type scored struct {
		chunk model.EvidenceChunk
		score float64
		index int
	}

	var results []scored
	for i, chunk := range s.chunks {
		lower := strings.ToLower(chunk.Text)
		matched := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, scored{
			chunk: chunk,
			score: float64(matched) / float64(len(tokens)),
			index: i,
		})
	}

	// Stable order: score descending, corpus order as tie-break
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].index < results[j].index
	})

	if len(results) > topK {
		results = results[:topK]
	}

	out := make([]model.EvidenceChunk, len(results))
	for i, r := range results {
		out[i] = r.chunk
		out[i].Score = r.score
	}
	return out, nil
}

const minTokenLen = 3

// queryTokens lowercases and splits the query, dropping short noise words
func queryTokens(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	seen := make(map[string]bool)
	var tokens []string
	for _, f := range fields {
		if len(f) < minTokenLen || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}
