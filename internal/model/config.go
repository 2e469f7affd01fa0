package model

import "time"

// Config is the complete typed configuration. Every recognized field is
// enumerated here; nothing is passed between stages as loose maps.
type Config struct {
	Retrieval   RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// RetrievalConfig configures the evidence provider.
type RetrievalConfig struct {
	// Provider selects the backend: "local" or "weaviate"
	Provider string `yaml:"provider" mapstructure:"provider"`

	// TopK is the number of evidence chunks retrieved per query
	TopK int `yaml:"top_k" mapstructure:"top_k"`

	// CorpusPath is the JSONL corpus file used by the local provider
	CorpusPath string `yaml:"corpus_path" mapstructure:"corpus_path"`

	// Weaviate connection settings (weaviate provider only)
	WeaviateHost   string `yaml:"weaviate_host" mapstructure:"weaviate_host"`
	WeaviateScheme string `yaml:"weaviate_scheme" mapstructure:"weaviate_scheme"`
	WeaviateClass  string `yaml:"weaviate_class" mapstructure:"weaviate_class"`
}

// PipelineConfig configures the verification-correction loop.
type PipelineConfig struct {
	// MaxRounds bounds the number of correction attempts per query
	MaxRounds int `yaml:"max_rounds" mapstructure:"max_rounds"`

	// HallucinationThreshold: verdicts with combined confidence below this
	// are flagged even when no discrete issue was found
	HallucinationThreshold float64 `yaml:"hallucination_threshold" mapstructure:"hallucination_threshold"`

	// ClaimSupportThreshold: declarative sentences whose evidence word
	// overlap falls below this ratio become issues
	ClaimSupportThreshold float64 `yaml:"claim_support_threshold" mapstructure:"claim_support_threshold"`

	// VerificationLevel: "basic" (rules only), "semantic" (LLM only),
	// or "comprehensive" (both)
	VerificationLevel string `yaml:"verification_level" mapstructure:"verification_level"`
}

// LLMConfig configures the answer generator.
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures retrieval-result caching.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend  string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered, redis
	Dir      string        `yaml:"dir" mapstructure:"dir"`
	RedisURL string        `yaml:"redis_url,omitempty" mapstructure:"redis_url"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig configures batch processing.
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// HTTPConfig configures the ingest fetcher.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// OutputConfig configures CLI output.
type OutputConfig struct {
	Verbose      bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeTrace bool `yaml:"include_trace" mapstructure:"include_trace"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Retrieval: RetrievalConfig{
			Provider:       "local",
			TopK:           5,
			CorpusPath:     "./data/corpus.jsonl",
			WeaviateScheme: "http",
			WeaviateClass:  "DocumentChunk",
		},
		Pipeline: PipelineConfig{
			MaxRounds:              2,
			HallucinationThreshold: 0.7,
			ClaimSupportThreshold:  0.3,
			VerificationLevel:      "comprehensive",
		},
		LLM: LLMConfig{
			Provider:    "",
			Timeout:     30,
			MaxTokens:   1200,
			Temperature: 0.1,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "memory",
			Dir:     "./data/cache",
			TTL:     time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Groundcheck/0.1 (+https://github.com/groundcheck/groundcheck)",
			MaxBodyBytes: 2_000_000,
		},
		Output: OutputConfig{},
	}
}
