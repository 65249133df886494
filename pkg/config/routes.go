package config

import (
	"context"
	"runtime"

	"github.com/Egham-7/adaptive-chat/internal/api"

	"github.com/gofiber/fiber/v2"
)

func setupRoutes(app *fiber.App, services *chatServices, infra *infrastructure) {
	checks := map[string]api.Pinger{
		"redis":    nil,
		"database": nil,
	}
	if infra.redis != nil {
		client := infra.redis
		checks["redis"] = api.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	if infra.db != nil {
		db := infra.db
		checks["database"] = api.PingerFunc(db.Ping)
	}
	app.Get("/health", api.NewHealthHandler(checks).HealthCheck)

	v1 := app.Group("/v1")

	chatHandler := api.NewChatHandler(services.orchestrator, services.selector.Personas)
	chat := v1.Group("/chat")
	chat.Post("/generate", chatHandler.Generate)
	chat.Get("/personas", chatHandler.Personas)
	chat.Post("/select", api.NewSelectModelHandler(services.selectModel).SelectModel)

	if services.usage != nil {
		usageHandler := api.NewUsageHandler(services.usage)
		usageGroup := v1.Group("/usage")
		usageGroup.Get("/stats", usageHandler.Stats)
		usageGroup.Get("/recent", usageHandler.Recent)
	}
}

func welcomeHandler(services *chatServices) fiber.Handler {
	endpoints := fiber.Map{
		"generate": "/v1/chat/generate",
		"personas": "/v1/chat/personas",
		"select":   "/v1/chat/select",
		"health":   "/health",
	}
	if services.usage != nil {
		endpoints["usage_stats"] = "/v1/usage/stats"
		endpoints["usage_recent"] = "/v1/usage/recent"
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":    "Welcome to AdaptiveChat!",
			"version":    "1.0.0",
			"go_version": runtime.Version(),
			"status":     "running",
			"providers":  services.registry.Names(),
			"endpoints":  endpoints,
		})
	}
}
