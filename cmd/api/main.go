package main

import (
	"github.com/Egham-7/adaptive-chat/internal/config"
	pkgconfig "github.com/Egham-7/adaptive-chat/pkg/config"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

func main() {
	envFiles := []string{".env.local", ".env.development", ".env"}
	config.LoadEnvFiles(envFiles)

	configPath := "config.yaml"
	if path := config.PathFromEnv(); path != "" {
		configPath = path
	}

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		fiberlog.Fatalf("Failed to load config: %v", err)
	}

	server := pkgconfig.NewServer(cfg)

	fiberlog.Info("Starting AdaptiveChat server...")
	if err := server.Run(); err != nil {
		fiberlog.Fatalf("Server failed: %v", err)
	}
}
