package api

import (
	"context"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/request"
	"github.com/Egham-7/adaptive-chat/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Generator produces one complete answer for a conversation
type Generator interface {
	Generate(ctx context.Context, messages []models.Message, opts models.GenerateOptions) (*models.AIResponse, error)
}

// ChatHandler exposes the fallback orchestrator over HTTP
type ChatHandler struct {
	generator Generator
	personas  func() []string
	reqSvc    *request.Service
	respSvc   *response.Service
}

// NewChatHandler wires the handler. personas lists the selectable aggregator personas.
func NewChatHandler(generator Generator, personas func() []string) *ChatHandler {
	return &ChatHandler{
		generator: generator,
		personas:  personas,
		reqSvc:    request.NewService(),
		respSvc:   response.NewService(),
	}
}

// Generate handles POST /v1/chat/generate
func (h *ChatHandler) Generate(c *fiber.Ctx) error {
	reqID := h.reqSvc.GetRequestID(c)
	fiberlog.Infof("[%s] starting generate request", reqID)

	var req models.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respSvc.HandleBadRequest(c, "invalid request body: "+err.Error(), reqID)
	}
	if err := req.Validate(); err != nil {
		return h.respSvc.HandleError(c, err, reqID)
	}

	opts := req.GenerateOptions
	opts.RequestID = reqID

	resp, err := h.generator.Generate(c.UserContext(), req.Messages, opts)
	if err != nil {
		return h.respSvc.HandleError(c, err, reqID)
	}

	fiberlog.Infof("[%s] generate completed with %s/%s in %dms", reqID, resp.Provider, resp.ModelUsed, resp.ResponseTimeMs)
	return c.JSON(resp)
}

// Personas handles GET /v1/chat/personas
func (h *ChatHandler) Personas(c *fiber.Ctx) error {
	personas := []string{}
	if h.personas != nil {
		if names := h.personas(); names != nil {
			personas = names
		}
	}
	return c.JSON(fiber.Map{"personas": personas})
}
