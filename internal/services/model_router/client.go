package model_router

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultRequestTimeout = 3 * time.Second
	tokenTTL              = 5 * time.Minute
	tokenSubject          = "adaptive-chat"
)

// Breaker guards calls to the router service
type Breaker interface {
	CanExecute() bool
	RecordSuccess()
	RecordFailure()
}

// Client calls the remote model router service
type Client struct {
	api       *services.JSONClient
	jwtSecret string
	timeout   time.Duration
	breaker   Breaker
}

// NewClient creates a router client. breaker may be nil.
func NewClient(cfg models.ModelRouterConfig, breaker Breaker) *Client {
	timeout := defaultRequestTimeout
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	return &Client{
		api:       services.NewJSONClient(cfg.URL),
		jwtSecret: cfg.JWTSecret,
		timeout:   timeout,
		breaker:   breaker,
	}
}

func (c *Client) generateJWT(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": tokenSubject,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.jwtSecret))
}

// SelectModel asks the router to pick one of req.Models for req.Prompt
func (c *Client) SelectModel(ctx context.Context, req models.ModelSelectionRequest, requestID string) (*models.ModelSelectionResponse, error) {
	start := time.Now()
	fiberlog.Debugf("[%s] Model router request - prompt_length: %d, models: %d",
		requestID, len(req.Prompt), len(req.Models))

	if c.breaker != nil && !c.breaker.CanExecute() {
		return nil, models.NewCircuitBreakerError("model_router")
	}

	opts := services.CallOptions{
		Timeout: c.timeout,
		Headers: map[string]string{},
	}
	if c.jwtSecret != "" {
		token, err := c.generateJWT(start)
		if err != nil {
			return nil, fmt.Errorf("failed to sign router token: %w", err)
		}
		opts.Headers["Authorization"] = "Bearer " + token
	}

	var out models.ModelSelectionResponse
	if err := c.api.PostJSON(ctx, req, &out, opts); err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("model router request failed: %w", err)
	}
	if !out.IsValid() {
		c.recordFailure()
		return nil, fmt.Errorf("model router returned an empty model")
	}

	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
	fiberlog.Debugf("[%s] Model router selected %s in %v", requestID, out.Model, time.Since(start))
	return &out, nil
}

func (c *Client) recordFailure() {
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
}

// Close releases idle connections
func (c *Client) Close() {
	c.api.Close()
}
