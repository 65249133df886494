// Package select_model resolves a conversation's candidate chain without calling any provider.
package select_model

import (
	"context"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/catalog"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Service handles model selection dry runs
type Service struct {
	selector *catalog.Selector
}

// NewService creates a new select model service
func NewService(selector *catalog.Selector) *Service {
	return &Service{selector: selector}
}

// SelectModel returns the candidates a generate call with the same input would try
func (s *Service) SelectModel(ctx context.Context, messages []models.Message, opts models.GenerateOptions) (*models.SelectModelResponse, error) {
	chain, err := s.selector.Chain(ctx, models.SelectionRequest{
		RequestID:     opts.RequestID,
		Messages:      messages,
		LatestMessage: models.LastUserMessage(messages),
		ForcedModel:   opts.Model,
		Persona:       opts.Persona,
	})
	if err != nil {
		return nil, err
	}

	staged := chain.Flatten()
	out := &models.SelectModelResponse{Candidates: make([]models.CandidatePreview, 0, len(staged))}
	for _, c := range staged {
		out.Candidates = append(out.Candidates, models.CandidatePreview{
			Provider:                c.Provider,
			Model:                   c.Profile.Name,
			ModelID:                 c.Profile.ModelID,
			Stage:                   c.Stage,
			FallThroughOnAnyFailure: c.FallThroughOnAnyFailure,
		})
	}

	if len(out.Candidates) > 0 {
		fiberlog.Infof("[%s] model selection completed - first candidate: %s/%s (%d total)",
			opts.RequestID, out.Candidates[0].Provider, out.Candidates[0].Model, len(out.Candidates))
	}
	return out, nil
}
