// Package request extracts per-request metadata from fiber contexts.
package request

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// requestIDLocalKey is the fiber locals key caching the request ID
	requestIDLocalKey = "request_id"
	// RequestIDHeader carries a caller-supplied request ID
	RequestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

func sanitizeRequestID(reqID string) string {
	sanitized := strings.TrimSpace(reqID)
	if len(sanitized) > maxRequestIDLength {
		sanitized = sanitized[:maxRequestIDLength]
	}
	return sanitized
}

// GetRequestID returns the caller's X-Request-ID or a generated one, cached in locals
func (s *Service) GetRequestID(c *fiber.Ctx) string {
	if cached, ok := c.Locals(requestIDLocalKey).(string); ok && cached != "" {
		return cached
	}

	requestID := sanitizeRequestID(c.Get(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Locals(requestIDLocalKey, requestID)
	c.Set(RequestIDHeader, requestID)
	return requestID
}
