package api

import (
	"context"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/request"
	"github.com/Egham-7/adaptive-chat/internal/services/response"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// UsageReader reads persisted completion records
type UsageReader interface {
	Recent(ctx context.Context, limit int) ([]models.CompletionRecord, error)
	Stats(ctx context.Context, since time.Time) (*models.UsageStats, error)
}

// UsageHandler exposes completion usage
type UsageHandler struct {
	usage   UsageReader
	reqSvc  *request.Service
	respSvc *response.Service
}

func NewUsageHandler(usage UsageReader) *UsageHandler {
	return &UsageHandler{
		usage:   usage,
		reqSvc:  request.NewService(),
		respSvc: response.NewService(),
	}
}

// Stats handles GET /v1/usage/stats?since=<RFC3339>
func (h *UsageHandler) Stats(c *fiber.Ctx) error {
	reqID := h.reqSvc.GetRequestID(c)

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return h.respSvc.HandleBadRequest(c, "since must be an RFC3339 timestamp", reqID)
		}
		since = parsed
	}

	stats, err := h.usage.Stats(c.UserContext(), since)
	if err != nil {
		return h.respSvc.HandleError(c, models.NewInternalError("failed to load usage stats", err), reqID)
	}
	return c.JSON(stats)
}

// Recent handles GET /v1/usage/recent?limit=<n>
func (h *UsageHandler) Recent(c *fiber.Ctx) error {
	reqID := h.reqSvc.GetRequestID(c)

	limit := c.QueryInt("limit", defaultRecentLimit)
	if limit <= 0 || limit > maxRecentLimit {
		return h.respSvc.HandleBadRequest(c, "limit must be between 1 and 500", reqID)
	}

	records, err := h.usage.Recent(c.UserContext(), limit)
	if err != nil {
		return h.respSvc.HandleError(c, models.NewInternalError("failed to load usage records", err), reqID)
	}
	return c.JSON(fiber.Map{"records": records})
}
