package models

// ProviderKind selects the SDK used to reach a provider
type ProviderKind string

const (
	ProviderKindOpenAI    ProviderKind = "openai"
	ProviderKindAnthropic ProviderKind = "anthropic"
	ProviderKindGemini    ProviderKind = "gemini"
)

// ProviderConfig holds configuration for one LLM provider
type ProviderConfig struct {
	Kind      ProviderKind      `yaml:"kind" json:"kind"`
	APIKey    string            `yaml:"api_key" json:"api_key,omitzero"`
	BaseURL   string            `yaml:"base_url" json:"base_url,omitzero"`     // Optional custom base URL
	TimeoutMs int               `yaml:"timeout_ms" json:"timeout_ms,omitzero"` // Per-call timeout in milliseconds
	Headers   map[string]string `yaml:"headers" json:"headers,omitzero"`       // Optional custom headers
}
