package config

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/config"
	"github.com/Egham-7/adaptive-chat/internal/services/catalog"
	"github.com/Egham-7/adaptive-chat/internal/services/circuitbreaker"
	"github.com/Egham-7/adaptive-chat/internal/services/continuation"
	"github.com/Egham-7/adaptive-chat/internal/services/database"
	"github.com/Egham-7/adaptive-chat/internal/services/fallback"
	"github.com/Egham-7/adaptive-chat/internal/services/gateway"
	"github.com/Egham-7/adaptive-chat/internal/services/model_router"
	"github.com/Egham-7/adaptive-chat/internal/services/select_model"
	"github.com/Egham-7/adaptive-chat/internal/services/usage"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	usageWorkerPoolSize   = 4
	usageWorkerBufferSize = 256
)

type infrastructure struct {
	redis *redis.Client
	db    *database.DB
}

type chatServices struct {
	selector     *catalog.Selector
	orchestrator *fallback.Orchestrator
	registry     *gateway.Registry
	router       *model_router.Router
	selectModel  *select_model.Service
	usage        *usage.Service
	worker       *usage.Worker
}

func (s *chatServices) close() {
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.router != nil {
		if err := s.router.Close(); err != nil {
			fiberlog.Errorf("Failed to close model router: %v", err)
		}
	}
}

// initializeInfrastructure connects Redis and the database concurrently.
// Either may be absent from the configuration.
func initializeInfrastructure(ctx context.Context, cfg *config.Config) (*infrastructure, error) {
	infra := &infrastructure{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		client, err := createRedisClient(gctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create Redis client: %w", err)
		}
		infra.redis = client
		return nil
	})

	g.Go(func() error {
		if cfg.Database == nil {
			fiberlog.Info("Database not configured - usage recording disabled")
			return nil
		}
		db, err := database.New(*cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		fiberlog.Infof("Database (%s) initialized successfully", db.DriverName())

		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
		fiberlog.Info("Database migrations completed successfully")
		infra.db = db
		return nil
	})

	if err := g.Wait(); err != nil {
		infra.close()
		return nil, err
	}
	return infra, nil
}

func (i *infrastructure) close() {
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func createRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		fiberlog.Info("Redis not configured - circuit breakers disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 50
	opt.MinIdleConns = 10
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.ConnMaxLifetime = 30 * time.Minute
	opt.DialTimeout = 10 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.MaxRetries = 3
	opt.MinRetryBackoff = 8 * time.Millisecond
	opt.MaxRetryBackoff = 512 * time.Millisecond

	fiberlog.Debugf("Redis client configuration: PoolSize=%d, MinIdle=%d, MaxRetries=%d",
		opt.PoolSize, opt.MinIdleConns, opt.MaxRetries)

	return testRedisConnectionWithRetry(ctx, redis.NewClient(opt))
}

func testRedisConnectionWithRetry(ctx context.Context, client *redis.Client) (*redis.Client, error) {
	const maxAttempts = 3
	const baseDelay = 1 * time.Second

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			fiberlog.Infof("Redis connection established successfully (attempt %d/%d)", attempt, maxAttempts)
			return client, nil
		}

		fiberlog.Warnf("Redis connection failed (attempt %d/%d): %v", attempt, maxAttempts, err)

		if attempt < maxAttempts {
			delay := time.Duration(attempt) * baseDelay
			fiberlog.Infof("Retrying Redis connection in %v...", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				_ = client.Close()
				return nil, ctx.Err()
			}
		}
	}

	if err := client.Close(); err != nil {
		fiberlog.Errorf("Failed to close Redis client after connection failures: %v", err)
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts", maxAttempts)
}

// breakerFactory returns nil when breakers are disabled so gateways stay unwrapped
func breakerFactory(cfg *config.Config, client *redis.Client) gateway.BreakerFactory {
	if !cfg.CircuitBreaker.Enabled {
		return nil
	}
	if client == nil {
		fiberlog.Warn("Circuit breaker enabled but Redis is not configured - breakers disabled")
		return nil
	}

	breakerCfg := circuitbreaker.ConfigFrom(cfg.CircuitBreaker)
	return func(provider string) gateway.Breaker {
		return circuitbreaker.NewForProvider(client, provider, breakerCfg)
	}
}

// newModelRouter builds the remote routing heuristic, or nil when it is not configured
func newModelRouter(cfg *config.Config, client *redis.Client) (*model_router.Router, error) {
	routerCfg := cfg.ModelRouter
	if routerCfg == nil {
		return nil, nil
	}

	var breaker model_router.Breaker
	if client != nil && routerCfg.CircuitBreaker.Enabled {
		breaker = circuitbreaker.NewForProvider(client, "model_router", circuitbreaker.ConfigFrom(routerCfg.CircuitBreaker))
	}

	var cache model_router.DecisionCache
	if routerCfg.SemanticCache.Enabled {
		redisURL := ""
		if cfg.Redis != nil {
			redisURL = cfg.Redis.URL
		}
		semantic, err := model_router.NewSemanticCache(routerCfg.SemanticCache, redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create model router cache: %w", err)
		}
		cache = semantic
	}

	fiberlog.Infof("Model router enabled (semantic cache: %t)", cache != nil)
	return model_router.New(model_router.NewClient(*routerCfg, breaker), cache, routerCfg.CostBias), nil
}

func initializeServices(cfg *config.Config, infra *infrastructure, heuristic catalog.Heuristic) (*chatServices, error) {
	services := &chatServices{}

	if heuristic == nil {
		router, err := newModelRouter(cfg, infra.redis)
		if err != nil {
			return nil, err
		}
		if router != nil {
			services.router = router
			heuristic = router
		}
	}

	primary, err := cfg.PrimaryCatalog()
	if err != nil {
		return nil, err
	}
	aggregator, err := cfg.AggregatorCatalog()
	if err != nil {
		return nil, err
	}

	selector, err := catalog.NewSelector(catalog.SelectorConfig{
		Primary:            primary,
		Aggregator:         aggregator,
		PrimaryProvider:    cfg.Routing.PrimaryProvider,
		AggregatorProvider: cfg.Routing.AggregatorProvider,
		Heuristic:          heuristic,
	})
	if err != nil {
		return nil, err
	}

	registry := gateway.NewRegistry(cfg.Providers, breakerFactory(cfg, infra.redis))
	engine := continuation.NewEngine(cfg.Continuation)

	services.selector = selector
	services.selectModel = select_model.NewService(selector)
	services.registry = registry

	var recorder fallback.Recorder
	if infra.db != nil {
		services.usage = usage.NewService(infra.db.DB)
		services.worker = usage.NewWorker(services.usage, usageWorkerPoolSize, usageWorkerBufferSize)
		recorder = services.worker
	}

	services.orchestrator = fallback.NewOrchestrator(selector, registry, engine, recorder)

	fiberlog.Infof("Chat services ready: primary=%s (%d models), aggregator=%q (%d personas), max rounds=%d",
		cfg.Routing.PrimaryProvider, len(primary.Names()),
		cfg.Routing.AggregatorProvider, len(selector.Personas()), engine.MaxRounds())

	return services, nil
}
