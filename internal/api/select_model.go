package api

import (
	"context"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/request"
	"github.com/Egham-7/adaptive-chat/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// ModelSelector previews the candidate chain for a conversation
type ModelSelector interface {
	SelectModel(ctx context.Context, messages []models.Message, opts models.GenerateOptions) (*models.SelectModelResponse, error)
}

// SelectModelHandler handles model selection dry runs
type SelectModelHandler struct {
	selector ModelSelector
	reqSvc   *request.Service
	respSvc  *response.Service
}

func NewSelectModelHandler(selector ModelSelector) *SelectModelHandler {
	return &SelectModelHandler{
		selector: selector,
		reqSvc:   request.NewService(),
		respSvc:  response.NewService(),
	}
}

// SelectModel handles POST /v1/chat/select. It accepts the generate body
// and returns the candidates without calling any provider.
func (h *SelectModelHandler) SelectModel(c *fiber.Ctx) error {
	reqID := h.reqSvc.GetRequestID(c)
	fiberlog.Infof("[%s] starting model selection request", reqID)

	var req models.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respSvc.HandleBadRequest(c, "invalid request body: "+err.Error(), reqID)
	}
	if err := req.Validate(); err != nil {
		return h.respSvc.HandleError(c, err, reqID)
	}

	opts := req.GenerateOptions
	opts.RequestID = reqID

	resp, err := h.selector.SelectModel(c.UserContext(), req.Messages, opts)
	if err != nil {
		return h.respSvc.HandleError(c, err, reqID)
	}
	return c.JSON(resp)
}
