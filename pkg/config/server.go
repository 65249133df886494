package config

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/config"
	"github.com/Egham-7/adaptive-chat/internal/services/database"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 30 * time.Second

// Server represents an AdaptiveChat server instance.
type Server struct {
	config   *config.Config
	builder  *Builder
	app      *fiber.App
	redis    *redis.Client
	db       *database.DB
	services *chatServices
}

// NewServer creates a new Server with the given configuration.
// The cfg parameter is required and must not be nil.
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		panic("config cannot be nil - use config.LoadFromFile() or the config builder to create config")
	}
	return NewServerWithBuilder(FromConfig(cfg))
}

// NewServerWithBuilder creates a Server from a builder, picking up its
// middlewares, rate limit, timeout and heuristic.
func NewServerWithBuilder(b *Builder) *Server {
	return &Server{
		config:  b.Build(),
		builder: b,
	}
}

// Setup validates the configuration, connects infrastructure and returns the
// fully routed fiber app without listening. Callers own Close.
func (s *Server) Setup(ctx context.Context) (*fiber.App, error) {
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogLevel(s.config)

	infra, err := initializeInfrastructure(ctx, s.config)
	if err != nil {
		return nil, err
	}
	s.redis = infra.redis
	s.db = infra.db

	services, err := initializeServices(s.config, infra, s.builder.GetHeuristic())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	s.services = services

	s.app = createFiberApp(s.config)
	setupMiddleware(s.app, s.config, s.builder)
	setupRoutes(s.app, services, infra)
	s.app.Get("/", welcomeHandler(services))

	return s.app, nil
}

// Close drains pending usage records and releases infrastructure connections.
func (s *Server) Close() {
	if s.services != nil {
		s.services.close()
		s.services = nil
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			fiberlog.Errorf("Failed to close Redis client: %v", err)
		}
		s.redis = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			fiberlog.Errorf("Failed to close database connection: %v", err)
		}
		s.db = nil
	}
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := s.Setup(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}
	listenAddr := ":" + port

	fmt.Printf("🚀 AdaptiveChat starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", s.config.Server.Environment)
	fmt.Printf("   Go version: %s\n", runtime.Version())
	fmt.Printf("   GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	serverErrChan := make(chan error, 1)
	go func() {
		if err := app.Listen(listenAddr); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		fiberlog.Info("Received shutdown signal. Starting graceful shutdown...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownErrChan := make(chan error, 1)
	go func() {
		shutdownErrChan <- app.ShutdownWithTimeout(shutdownTimeout)
	}()

	select {
	case err := <-shutdownErrChan:
		if err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		fiberlog.Info("Server shutdown completed successfully")
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown timeout exceeded")
	}

	return nil
}

func createFiberApp(cfg *config.Config) *fiber.App {
	isProd := cfg.IsProduction()

	return fiber.New(fiber.Config{
		AppName:           "AdaptiveChat v1.0",
		EnablePrintRoutes: !isProd,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		ReadBufferSize:    8192,
		WriteBufferSize:   8192,
		CaseSensitive:     true,
		Network:           "tcp",
		ServerHeader:      "AdaptiveChat",
	})
}

func setupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "info", "":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	case "fatal":
		fiberlog.SetLevel(fiberlog.LevelFatal)
	case "panic":
		fiberlog.SetLevel(fiberlog.LevelPanic)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}

	fiberlog.Infof("Log level set to: %s", logLevel)
}
