package model_router

import (
	"context"
	"fmt"

	"github.com/Egham-7/adaptive-chat/internal/models"

	"github.com/botirk38/semanticcache"
	"github.com/botirk38/semanticcache/options"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	defaultSemanticThreshold = 0.9
	defaultCacheCapacity     = 1000
	defaultEmbeddingModel    = "text-embedding-3-small"
)

// DecisionCache remembers routing decisions per prompt
type DecisionCache interface {
	// Lookup returns the cached model name and the cache tier that served it
	Lookup(ctx context.Context, prompt, requestID string) (string, string, bool)
	Store(ctx context.Context, prompt, model, requestID string)
	Delete(ctx context.Context, prompt, requestID string)
	Close() error
}

// SemanticCache caches routing decisions by exact prompt, then by embedding similarity
type SemanticCache struct {
	cache     *semanticcache.SemanticCache[string, models.ModelSelectionResponse]
	threshold float32
}

// NewSemanticCache builds the cache on the configured backend. redisURL is
// required for the redis backend.
func NewSemanticCache(cfg models.CacheConfig, redisURL string) (*SemanticCache, error) {
	threshold := cfg.SemanticThreshold
	if threshold == 0 {
		threshold = defaultSemanticThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("invalid semantic threshold %.2f; must be in (0.0, 1.0]", threshold)
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("semantic cache requires openai_api_key for embeddings")
	}

	embedModel := cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = defaultEmbeddingModel
	}

	var (
		cache *semanticcache.SemanticCache[string, models.ModelSelectionResponse]
		err   error
	)

	backend := cfg.Backend
	if backend == "" {
		backend = models.CacheBackendMemory
	}

	switch backend {
	case models.CacheBackendMemory:
		capacity := cfg.Capacity
		if capacity <= 0 {
			capacity = defaultCacheCapacity
		}
		fiberlog.Debugf("ModelRouterCache: Using in-memory LRU backend with capacity=%d", capacity)
		cache, err = semanticcache.New(
			options.WithOpenAIProvider[string, models.ModelSelectionResponse](cfg.OpenAIAPIKey, embedModel),
			options.WithLRUBackend[string, models.ModelSelectionResponse](capacity),
		)
	case models.CacheBackendRedis:
		if redisURL == "" {
			return nil, fmt.Errorf("redis backend requires redis.url")
		}
		fiberlog.Debug("ModelRouterCache: Using Redis backend")
		cache, err = semanticcache.New(
			options.WithOpenAIProvider[string, models.ModelSelectionResponse](cfg.OpenAIAPIKey, embedModel),
			options.WithRedisBackend[string, models.ModelSelectionResponse](redisURL, 0),
		)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s (supported: redis, memory)", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create semantic cache: %w", err)
	}

	fiberlog.Infof("ModelRouterCache: Semantic cache ready (backend=%s, threshold=%.2f)", backend, threshold)
	return &SemanticCache{cache: cache, threshold: float32(threshold)}, nil
}

func (c *SemanticCache) Lookup(ctx context.Context, prompt, requestID string) (string, string, bool) {
	if hit, found, err := c.cache.Get(ctx, prompt); err != nil {
		fiberlog.Errorf("[%s] ModelRouterCache: Error during exact lookup: %v", requestID, err)
	} else if found && hit.IsValid() {
		return hit.Model, models.CacheTierSemanticExact, true
	}

	match, err := c.cache.Lookup(ctx, prompt, c.threshold)
	if err != nil {
		fiberlog.Errorf("[%s] ModelRouterCache: Error during semantic lookup: %v", requestID, err)
		return "", "", false
	}
	if match == nil || !match.Value.IsValid() {
		return "", "", false
	}
	fiberlog.Debugf("[%s] ModelRouterCache: Semantic hit (score: %.2f)", requestID, match.Score)
	return match.Value.Model, models.CacheTierSemanticSimilar, true
}

// Store saves the decision without blocking the request
func (c *SemanticCache) Store(ctx context.Context, prompt, model, requestID string) {
	fiberlog.Debugf("[%s] ModelRouterCache: Storing decision %s", requestID, model)
	c.cache.SetAsync(ctx, prompt, prompt, models.ModelSelectionResponse{Model: model})
}

func (c *SemanticCache) Delete(ctx context.Context, prompt, requestID string) {
	fiberlog.Debugf("[%s] ModelRouterCache: Invalidating cache entry", requestID)
	c.cache.DeleteAsync(ctx, prompt)
}

func (c *SemanticCache) Close() error {
	return c.cache.Close()
}
