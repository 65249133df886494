package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/config"
	"github.com/Egham-7/adaptive-chat/internal/services/request"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/timeout"
)

const (
	defaultRateLimit      = 1000
	defaultRateWindow     = time.Minute
	defaultRequestTimeout = 2 * time.Minute
	maxRequestTimeout     = 5 * time.Minute
	requestTimeoutHeader  = "X-Request-Timeout"
)

func setupMiddleware(app *fiber.App, cfg *config.Config, b *Builder) {
	isProd := cfg.IsProduction()

	// Recover middleware (must be first)
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !isProd,
	}))

	app.Use(rateLimiter(b))
	app.Use(requestTimeout(b))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	if isProd {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${bytesSent}b\n",
			Output: os.Stdout,
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
			Output: os.Stdout,
		}))
	}

	allowedHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization", "User-Agent",
		request.RequestIDHeader, requestTimeoutHeader,
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowHeaders:  strings.Join(allowedHeaders, ", "),
		AllowMethods:  "GET, POST, OPTIONS",
		MaxAge:        86400,
		ExposeHeaders: "Content-Length, Content-Type, " + request.RequestIDHeader,
	}))

	for _, middleware := range b.GetMiddlewares() {
		app.Use(middleware)
	}

	// Profiler (dev only)
	if !isProd {
		app.Use(pprof.New())
	}
}

func rateLimiter(b *Builder) fiber.Handler {
	max, expiration := defaultRateLimit, defaultRateWindow
	keyFunc := func(c *fiber.Ctx) string { return c.IP() }

	if rlCfg := b.GetRateLimitConfig(); rlCfg != nil {
		max, expiration = rlCfg.Max, rlCfg.Expiration
		if rlCfg.KeyFunc != nil {
			keyFunc = rlCfg.KeyFunc
		}
	}

	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        expiration,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      keyFunc,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests,
				fmt.Sprintf("rate limit exceeded: %d requests per %v", max, expiration))
		},
	})
}

// requestTimeout bounds each request's context. A fixed builder timeout wins
// over the per-request header.
func requestTimeout(b *Builder) fiber.Handler {
	if tCfg := b.GetTimeoutConfig(); tCfg != nil {
		next := func(c *fiber.Ctx) error { return c.Next() }
		return timeout.NewWithContext(next, tCfg.Timeout)
	}

	return func(c *fiber.Ctx) error {
		d := defaultRequestTimeout
		if custom := c.Get(requestTimeoutHeader); custom != "" {
			if parsed, err := time.ParseDuration(custom); err == nil && parsed > 0 {
				d = min(parsed, maxRequestTimeout)
			}
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)

		return c.Next()
	}
}
