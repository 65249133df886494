package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// BreakerFactory returns the breaker for a provider, or nil for none
type BreakerFactory func(provider string) Breaker

// Registry resolves provider identities to gateways, building each once
type Registry struct {
	providers map[string]models.ProviderConfig
	breakers  BreakerFactory
	cache     *clientcache.Cache[Gateway]
}

// NewRegistry creates a registry over the configured providers
func NewRegistry(providers map[string]models.ProviderConfig, breakers BreakerFactory) *Registry {
	normalized := make(map[string]models.ProviderConfig, len(providers))
	for name, cfg := range providers {
		normalized[strings.ToLower(name)] = cfg
	}
	return &Registry{
		providers: normalized,
		breakers:  breakers,
		cache:     clientcache.NewCache[Gateway](),
	}
}

// Register installs a pre-built gateway, replacing any configured one
func (r *Registry) Register(g Gateway) {
	name := strings.ToLower(g.Name())
	r.cache.Delete(name)
	_, _ = r.cache.GetOrCreate(name, func() (Gateway, error) { return g, nil })
	if _, ok := r.providers[name]; !ok {
		r.providers[name] = models.ProviderConfig{}
	}
}

// Get returns the gateway for a provider identity
func (r *Registry) Get(ctx context.Context, provider string) (Gateway, error) {
	name := strings.ToLower(provider)
	cfg, ok := r.providers[name]
	if !ok {
		return nil, models.NewValidationError(fmt.Sprintf("provider %q is not configured", provider), nil)
	}

	return r.cache.GetOrCreate(name, func() (Gateway, error) {
		hash, err := configHash(cfg)
		if err == nil {
			fiberlog.Debugf("Creating %s gateway for %s (config hash: %s)", cfg.Kind, name, hash[:8])
		}
		g, err := build(ctx, name, cfg)
		if err != nil {
			return nil, err
		}
		if r.breakers != nil {
			g = WithBreaker(g, r.breakers(name))
		}
		return g, nil
	})
}

// Names lists configured provider identities in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func build(ctx context.Context, name string, cfg models.ProviderConfig) (Gateway, error) {
	switch cfg.Kind {
	case models.ProviderKindOpenAI, "":
		return NewOpenAIGateway(name, cfg)
	case models.ProviderKindAnthropic:
		return NewAnthropicGateway(name, cfg)
	case models.ProviderKindGemini:
		return NewGeminiGateway(ctx, name, cfg)
	default:
		return nil, models.NewValidationError(fmt.Sprintf("provider %s has unsupported kind %q", name, cfg.Kind), nil)
	}
}

// configHash fingerprints a provider config without exposing the API key
func configHash(cfg models.ProviderConfig) (string, error) {
	type configForHash struct {
		Kind       models.ProviderKind
		BaseURL    string
		TimeoutMs  int
		Headers    map[string]string
		APIKeyHash string
	}

	apiKeyHash := sha256.Sum256([]byte(cfg.APIKey))
	configJSON, err := json.Marshal(configForHash{
		Kind:       cfg.Kind,
		BaseURL:    cfg.BaseURL,
		TimeoutMs:  cfg.TimeoutMs,
		Headers:    cfg.Headers,
		APIKeyHash: fmt.Sprintf("%x", apiKeyHash[:8]),
	})
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(configJSON)
	return fmt.Sprintf("%x", hash[:16]), nil
}
