package llm

import (
	"context"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Provider defines the interface for text generators
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces text for the given prompt. A non-nil error means
	// this call failed; callers decide whether the pipeline degrades or
	// retries. Error text never leaks into generated output.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for one generation call
type GenerateRequest struct {
	// Prompt is the full user prompt
	Prompt string

	// System is an optional system-role instruction
	System string

	// Temperature controls randomness; zero means use the configured default
	Temperature float64

	// MaxTokens limits the response length; zero means use the configured default
	MaxTokens int

	// Model overrides the configured model for this call
	Model string
}

// GenerateResponse contains the generator's output
type GenerateResponse struct {
	// Text is the generated text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature default for generation calls
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Model:       "",
		Timeout:     30,
		MaxTokens:   1200,
		Temperature: 0.1,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:    mc.Provider,
		Model:       mc.Model,
		APIKey:      mc.APIKey,
		BaseURL:     mc.BaseURL,
		Timeout:     mc.Timeout,
		MaxTokens:   mc.MaxTokens,
		Temperature: mc.Temperature,
		HTTPProxy:   mc.HTTPProxy,
		HTTPSProxy:  mc.HTTPSProxy,
		NoProxy:     mc.NoProxy,
	}
}

// resolve fills request defaults from config
func (c Config) resolve(req GenerateRequest) GenerateRequest {
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.MaxTokens
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 1200
	}
	if req.Temperature == 0 {
		req.Temperature = c.Temperature
	}
	return req
}
