package retrieval

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/groundcheck/groundcheck/internal/model"
)

// WeaviateProvider retrieves evidence chunks from a Weaviate class via
// nearText semantic search. Embedding generation and index persistence are
// Weaviate's concern; this provider only normalizes the hits.
type WeaviateProvider struct {
	client *weaviate.Client
	class  string
}

// NewWeaviateProvider creates a provider for the configured Weaviate instance
func NewWeaviateProvider(cfg model.RetrievalConfig) (*WeaviateProvider, error) {
	if cfg.WeaviateHost == "" {
		return nil, fmt.Errorf("weaviate host is required")
	}

	scheme := cfg.WeaviateScheme
	if scheme == "" {
		scheme = "http"
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.WeaviateHost,
		Scheme: scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	class := cfg.WeaviateClass
	if class == "" {
		class = "DocumentChunk"
	}

	return &WeaviateProvider{
		client: client,
		class:  class,
	}, nil
}

// Name returns the provider name
func (p *WeaviateProvider) Name() string {
	return "weaviate"
}

// Retrieve runs a nearText query and normalizes hits into EvidenceChunks.
// Weaviate's certainty (already in [0,1]) becomes the relevance score.
func (p *WeaviateProvider) Retrieve(ctx context.Context, query string, topK int) ([]model.EvidenceChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	nearText := p.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "document"},
		{Name: "section"},
		{Name: "_additional { certainty }"},
	}

	result, err := p.client.GraphQL().Get().
		WithClassName(p.class).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate query: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query: %s", result.Errors[0].Message)
	}

	return p.normalize(result.Data)
}

// normalize converts the GraphQL response payload into canonical chunks
func (p *WeaviateProvider) normalize(data map[string]models.JSONObject) ([]model.EvidenceChunk, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	hits, ok := get[p.class].([]interface{})
	if !ok {
		return nil, nil
	}

	var chunks []model.EvidenceChunk
	for _, hit := range hits {
		obj, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		text, _ := obj["content"].(string)
		if text == "" {
			continue
		}

		source := make(map[string]string)
		if doc, ok := obj["document"].(string); ok && doc != "" {
			source["document"] = doc
		}
		if sec, ok := obj["section"].(string); ok && sec != "" {
			source["section"] = sec
		}

		score := 0.0
		if add, ok := obj["_additional"].(map[string]interface{}); ok {
			if certainty, ok := add["certainty"].(float64); ok {
				score = certainty
			}
		}

		chunks = append(chunks, model.EvidenceChunk{
			Text:   text,
			Source: source,
			Score:  score,
		})
	}

	return chunks, nil
}
