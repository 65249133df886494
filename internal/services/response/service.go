// Package response writes JSON error bodies for the HTTP surface.
package response

import (
	"github.com/Egham-7/adaptive-chat/internal/models"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code,omitzero"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"request_id,omitzero"`
}

// Error sends an error response with specified status, type, and code
func (s *Service) Error(c *fiber.Ctx, status int, message, errorType, code, requestID string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Message:   message,
			Type:      errorType,
			Code:      code,
			RequestID: requestID,
		},
	})
}

// HandleError maps err to its status code and a sanitized body
func (s *Service) HandleError(c *fiber.Ctx, err error, requestID string) error {
	appErr := models.SanitizeError(err)
	status := appErr.GetStatusCode()
	if status >= fiber.StatusInternalServerError {
		fiberlog.Errorf("[%s] request failed: %v", requestID, err)
	} else {
		fiberlog.Warnf("[%s] request rejected: %v", requestID, err)
	}

	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorDetail{
			Message:   appErr.Message,
			Type:      string(appErr.Type),
			Code:      appErr.Code,
			Retryable: appErr.Retryable,
			RequestID: requestID,
		},
	})
}

// HandleBadRequest sends a 400 validation error
func (s *Service) HandleBadRequest(c *fiber.Ctx, message, requestID string) error {
	return s.Error(c, fiber.StatusBadRequest, message, string(models.ErrorTypeValidation), "", requestID)
}
