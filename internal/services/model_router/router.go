// Package model_router selects primary-provider models through a remote
// router service, caching its decisions.
package model_router

import (
	"context"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/catalog"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Router is a catalog.Heuristic backed by the remote router. Any router
// failure falls back to the catalog's deep reasoning profile.
type Router struct {
	client   *Client
	cache    DecisionCache
	costBias *float32
}

var _ catalog.Heuristic = (*Router)(nil)

// New creates a router. cache may be nil.
func New(client *Client, cache DecisionCache, costBias float32) *Router {
	r := &Router{client: client, cache: cache}
	if costBias > 0 {
		r.costBias = &costBias
	}
	return r
}

func (r *Router) Select(ctx context.Context, req models.SelectionRequest, cat *catalog.Catalog) models.ModelProfile {
	requestID := req.RequestID
	fallback := cat.DeepReasoning()

	prompt := req.LatestMessage
	if prompt == "" {
		return fallback
	}

	fiberlog.Infof("[%s] ═══ Model Selection Started ═══", requestID)

	if r.cache != nil {
		if name, tier, ok := r.cache.Lookup(ctx, prompt, requestID); ok {
			if profile, found := cat.Lookup(name); found {
				fiberlog.Infof("[%s] ✅ CACHE HIT (%s) - using %s", requestID, tier, name)
				return profile
			}
			fiberlog.Warnf("[%s] Cached model %q is not in the catalog, invalidating", requestID, name)
			r.cache.Delete(ctx, prompt, requestID)
		}
	}

	resp, err := r.client.SelectModel(ctx, models.ModelSelectionRequest{
		Prompt:   prompt,
		Models:   routerModels(cat),
		CostBias: r.costBias,
	}, requestID)
	if err != nil {
		fiberlog.Warnf("[%s] Model router unavailable, using %s: %v", requestID, fallback.Name, err)
		return fallback
	}

	profile, ok := cat.Lookup(resp.Model)
	if !ok {
		fiberlog.Warnf("[%s] Model router chose unknown model %q, using %s", requestID, resp.Model, fallback.Name)
		return fallback
	}

	if r.cache != nil {
		r.cache.Store(context.WithoutCancel(ctx), prompt, profile.Name, requestID)
	}
	fiberlog.Infof("[%s] ✅ Model router selected %s", requestID, profile.Name)
	return profile
}

// Close releases the cache and the HTTP client
func (r *Router) Close() error {
	r.client.Close()
	if r.cache != nil {
		return r.cache.Close()
	}
	return nil
}

func routerModels(cat *catalog.Catalog) []models.RouterModel {
	profiles := cat.Profiles()
	out := make([]models.RouterModel, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, models.RouterModel{
			Name:            p.Name,
			Description:     p.Description,
			ContextWindow:   p.ContextWindow,
			MaxOutputTokens: p.MaxOutputTokens,
			DeepReasoning:   p.DeepReasoning,
		})
	}
	return out
}
