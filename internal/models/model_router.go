package models

// CacheBackend selects where routing decisions are cached
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)

// Cache tiers reported when a routing decision is served from cache
const (
	CacheTierSemanticExact   = "semantic_exact"
	CacheTierSemanticSimilar = "semantic_similar"
)

// ModelRouterConfig configures the optional remote model router consulted
// when the caller does not force a model
type ModelRouterConfig struct {
	URL            string               `json:"url" yaml:"url"`
	JWTSecret      string               `json:"jwt_secret,omitzero" yaml:"jwt_secret"`
	TimeoutMs      int                  `json:"timeout_ms,omitzero" yaml:"timeout_ms"`
	CostBias       float32              `json:"cost_bias,omitzero" yaml:"cost_bias"`
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker" yaml:"circuit_breaker"`
	SemanticCache  CacheConfig          `json:"semantic_cache" yaml:"semantic_cache"`
}

// CacheConfig configures the semantic cache of routing decisions
type CacheConfig struct {
	Enabled           bool         `json:"enabled" yaml:"enabled"`
	Backend           CacheBackend `json:"backend,omitzero" yaml:"backend"`
	Capacity          int          `json:"capacity,omitzero" yaml:"capacity"`
	SemanticThreshold float64      `json:"semantic_threshold,omitzero" yaml:"semantic_threshold"`
	OpenAIAPIKey      string       `json:"openai_api_key,omitzero" yaml:"openai_api_key"`
	EmbeddingModel    string       `json:"embedding_model,omitzero" yaml:"embedding_model"`
}

// RouterModel describes one catalog entry to the model router
type RouterModel struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitzero"`
	ContextWindow   int64  `json:"context_window,omitzero"`
	MaxOutputTokens int64  `json:"max_output_tokens,omitzero"`
	DeepReasoning   bool   `json:"deep_reasoning,omitzero"`
}

// ModelSelectionRequest is the body sent to the model router
type ModelSelectionRequest struct {
	Prompt   string        `json:"prompt"`
	Models   []RouterModel `json:"models"`
	CostBias *float32      `json:"cost_bias,omitzero"`
}

// ModelSelectionResponse is the router's decision
type ModelSelectionResponse struct {
	Model string `json:"model"`
}

// IsValid validates that the ModelSelectionResponse has required fields
func (m *ModelSelectionResponse) IsValid() bool {
	return m != nil && m.Model != ""
}
