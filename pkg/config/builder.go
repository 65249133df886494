// Package config assembles an AdaptiveChat server from YAML or a fluent builder.
package config

import (
	"strings"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/config"
	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/catalog"

	"github.com/gofiber/fiber/v2"
)

// Builder provides a fluent interface for building server configurations.
type Builder struct {
	cfg             *config.Config
	middlewares     []fiber.Handler
	rateLimitConfig *models.RateLimitConfig
	timeoutConfig   *models.TimeoutConfig
	heuristic       catalog.Heuristic
}

// New creates a new configuration builder with minimal defaults.
func New() *Builder {
	return &Builder{
		cfg: &config.Config{
			Server: models.ServerConfig{
				Port:           "8080",
				AllowedOrigins: "*",
				Environment:    "development",
				LogLevel:       "info",
			},
			Providers:    make(map[string]models.ProviderConfig),
			Continuation: models.ContinuationConfig{}.WithDefaults(),
		},
		middlewares: []fiber.Handler{},
	}
}

// Port sets the server port.
func (b *Builder) Port(port string) *Builder {
	b.cfg.Server.Port = port
	return b
}

// AllowedOrigins sets the CORS allowed origins.
func (b *Builder) AllowedOrigins(origins string) *Builder {
	b.cfg.Server.AllowedOrigins = origins
	return b
}

// Environment sets the environment (development, production).
func (b *Builder) Environment(env string) *Builder {
	b.cfg.Server.Environment = env
	return b
}

// LogLevel sets the log level (trace, debug, info, warn, error, fatal).
func (b *Builder) LogLevel(level string) *Builder {
	b.cfg.Server.LogLevel = level
	return b
}

// AddProvider registers a provider identity.
func (b *Builder) AddProvider(name string, cfg models.ProviderConfig) *Builder {
	b.cfg.Providers[normalizeName(name)] = cfg
	return b
}

// PrimaryProvider routes the primary catalog to an already added provider.
func (b *Builder) PrimaryProvider(name string) *Builder {
	b.cfg.Routing.PrimaryProvider = normalizeName(name)
	return b
}

// AggregatorProvider routes persona requests to an already added provider.
func (b *Builder) AggregatorProvider(name string) *Builder {
	b.cfg.Routing.AggregatorProvider = normalizeName(name)
	return b
}

// WithPrimaryProfiles replaces the built-in primary catalog.
func (b *Builder) WithPrimaryProfiles(profiles ...models.ModelProfile) *Builder {
	b.cfg.Catalogs.Primary = profiles
	return b
}

// WithPersonas replaces the built-in aggregator catalog.
func (b *Builder) WithPersonas(profiles ...models.ModelProfile) *Builder {
	b.cfg.Catalogs.Aggregator = profiles
	return b
}

// WithHeuristic sets the model selection heuristic used when no model is forced.
func (b *Builder) WithHeuristic(h catalog.Heuristic) *Builder {
	b.heuristic = h
	return b
}

// WithModelRouter consults a remote model router when no model is forced.
// Ignored when WithHeuristic is set.
func (b *Builder) WithModelRouter(cfg models.ModelRouterConfig) *Builder {
	b.cfg.ModelRouter = &cfg
	return b
}

// WithContinuation overrides the round budget and continuation instruction.
// Zero values keep the defaults.
func (b *Builder) WithContinuation(maxRounds int, instruction string) *Builder {
	b.cfg.Continuation = models.ContinuationConfig{
		MaxRounds:   maxRounds,
		Instruction: instruction,
	}.WithDefaults()
	return b
}

// WithRedis configures the Redis connection used for circuit breakers.
func (b *Builder) WithRedis(url string) *Builder {
	b.cfg.Redis = &models.RedisConfig{URL: url}
	return b
}

// WithCircuitBreaker enables per-provider circuit breakers. Requires WithRedis.
func (b *Builder) WithCircuitBreaker(cfg models.CircuitBreakerConfig) *Builder {
	cfg.Enabled = true
	b.cfg.CircuitBreaker = cfg
	return b
}

// WithDatabase configures the database used for usage records.
func (b *Builder) WithDatabase(cfg models.DatabaseConfig) *Builder {
	b.cfg.Database = &cfg
	return b
}

// WithRateLimit configures rate limiting middleware.
func (b *Builder) WithRateLimit(max int, expiration time.Duration, keyFunc ...func(*fiber.Ctx) string) *Builder {
	cfg := &models.RateLimitConfig{
		Max:        max,
		Expiration: expiration,
	}
	if len(keyFunc) > 0 {
		cfg.KeyFunc = keyFunc[0]
	}
	b.rateLimitConfig = cfg
	return b
}

// WithTimeout configures request timeout middleware.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeoutConfig = &models.TimeoutConfig{
		Timeout: timeout,
	}
	return b
}

// WithMiddleware adds a custom middleware.
func (b *Builder) WithMiddleware(middleware fiber.Handler) *Builder {
	b.middlewares = append(b.middlewares, middleware)
	return b
}

// GetMiddlewares returns all configured middlewares.
func (b *Builder) GetMiddlewares() []fiber.Handler {
	return b.middlewares
}

// GetRateLimitConfig returns the rate limit configuration.
func (b *Builder) GetRateLimitConfig() *models.RateLimitConfig {
	return b.rateLimitConfig
}

// GetTimeoutConfig returns the timeout configuration.
func (b *Builder) GetTimeoutConfig() *models.TimeoutConfig {
	return b.timeoutConfig
}

// GetHeuristic returns the selection heuristic, nil for the default.
func (b *Builder) GetHeuristic() catalog.Heuristic {
	return b.heuristic
}

// Build returns the constructed configuration.
func (b *Builder) Build() *config.Config {
	return b.cfg
}

// FromYAML creates a Builder from a YAML configuration file.
// The envFiles parameter specifies which .env files to load before parsing the YAML config.
// Files are loaded in order (first has highest priority).
func FromYAML(path string, envFiles []string) (*Builder, error) {
	if len(envFiles) > 0 {
		config.LoadEnvFiles(envFiles)
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	return FromConfig(cfg), nil
}

// FromConfig wraps an already loaded configuration.
func FromConfig(cfg *config.Config) *Builder {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]models.ProviderConfig)
	}
	return &Builder{
		cfg:         cfg,
		middlewares: []fiber.Handler{},
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
