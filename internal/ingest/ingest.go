// Package ingest builds the local retrieval corpus: it fetches documents
// over HTTP or reads them from disk, splits their text into overlapping
// chunks, and appends the chunks to a JSONL corpus file.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Ingestor turns documents into corpus chunks
type Ingestor struct {
	fetcher    *Fetcher
	splitter   *Splitter
	corpusPath string
}

// NewIngestor creates an ingestor writing to the corpus at corpusPath
func NewIngestor(cfg model.HTTPConfig, corpusPath string) *Ingestor {
	return &Ingestor{
		fetcher:    NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes),
		splitter:   NewSplitter(),
		corpusPath: corpusPath,
	}
}

// corpusLine mirrors the on-disk corpus record read back at retrieval time
type corpusLine struct {
	Text   string            `json:"text"`
	Source map[string]string `json:"source,omitempty"`
}

// IngestURL fetches a document and appends its chunks to the corpus.
// Returns the number of chunks written.
func (ing *Ingestor) IngestURL(ctx context.Context, rawURL string) (int, error) {
	result, err := ing.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return 0, err
	}

	return ing.appendChunks(result.Text, map[string]string{
		"document": result.Title,
		"url":      result.FinalURL,
	})
}

// IngestFile reads a plain-text document from disk and appends its chunks
// to the corpus
func (ing *Ingestor) IngestFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read document: %w", err)
	}

	return ing.appendChunks(string(data), map[string]string{
		"document": filepath.Base(path),
		"path":     path,
	})
}

// IngestText appends raw text to the corpus under the given document name
func (ing *Ingestor) IngestText(text, document string) (int, error) {
	return ing.appendChunks(text, map[string]string{"document": document})
}

func (ing *Ingestor) appendChunks(text string, source map[string]string) (int, error) {
	chunks := ing.splitter.Split(text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document contains no text")
	}

	if dir := filepath.Dir(ing.corpusPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create corpus dir: %w", err)
		}
	}

	f, err := os.OpenFile(ing.corpusPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i, chunk := range chunks {
		line := corpusLine{Text: chunk, Source: make(map[string]string, len(source)+1)}
		for k, v := range source {
			if v != "" {
				line.Source[k] = v
			}
		}
		line.Source["section"] = strconv.Itoa(i)

		if err := enc.Encode(line); err != nil {
			return i, fmt.Errorf("write corpus line: %w", err)
		}
	}

	return len(chunks), nil
}
