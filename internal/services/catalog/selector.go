package catalog

import (
	"context"
	"fmt"

	"github.com/Egham-7/adaptive-chat/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const (
	stagePersona = "persona"
	stagePrimary = "primary"
)

// Heuristic picks the primary-provider model for a turn when none is forced.
// Implementations may branch on the latest user utterance. Select must
// return a profile of catalog.
type Heuristic interface {
	Select(ctx context.Context, req models.SelectionRequest, catalog *Catalog) models.ModelProfile
}

// DeepReasoningHeuristic always selects the deep reasoning profile
type DeepReasoningHeuristic struct{}

func (DeepReasoningHeuristic) Select(_ context.Context, _ models.SelectionRequest, catalog *Catalog) models.ModelProfile {
	return catalog.DeepReasoning()
}

// Selector resolves a SelectionRequest into a CandidateChain
type Selector struct {
	primary            *Catalog
	aggregator         *Catalog
	primaryProvider    string
	aggregatorProvider string
	heuristic          Heuristic
}

// SelectorConfig wires catalogs to provider identities
type SelectorConfig struct {
	Primary            *Catalog
	Aggregator         *Catalog
	PrimaryProvider    string
	AggregatorProvider string
	Heuristic          Heuristic
}

// NewSelector creates a selector. The aggregator catalog and provider are optional.
func NewSelector(cfg SelectorConfig) (*Selector, error) {
	if cfg.Primary == nil {
		return nil, fmt.Errorf("primary catalog is required")
	}
	if cfg.PrimaryProvider == "" {
		return nil, fmt.Errorf("primary provider is required")
	}
	heuristic := cfg.Heuristic
	if heuristic == nil {
		heuristic = DeepReasoningHeuristic{}
	}
	return &Selector{
		primary:            cfg.Primary,
		aggregator:         cfg.Aggregator,
		primaryProvider:    cfg.PrimaryProvider,
		aggregatorProvider: cfg.AggregatorProvider,
		heuristic:          heuristic,
	}, nil
}

// ResolvePrimary returns the forced model's profile unchanged, or applies the heuristic
func (s *Selector) ResolvePrimary(ctx context.Context, req models.SelectionRequest) (models.ModelProfile, error) {
	if req.ForcedModel != "" {
		profile, ok := s.primary.Lookup(req.ForcedModel)
		if !ok {
			return models.ModelProfile{}, models.NewValidationError(
				fmt.Sprintf("unknown model %q", req.ForcedModel), nil)
		}
		return profile, nil
	}

	if req.LatestMessage == "" {
		req.LatestMessage = models.LastUserMessage(req.Messages)
	}
	return s.heuristic.Select(ctx, req, s.primary), nil
}

// BuildFallbackChain returns every other primary profile ordered by priority
func (s *Selector) BuildFallbackChain(primary models.ModelProfile) []models.ModelProfile {
	return s.primary.Except(primary.Name)
}

// FullChain is the primary-provider stage: the resolved model, then its fallbacks
func (s *Selector) FullChain(ctx context.Context, req models.SelectionRequest) (models.CandidateChain, error) {
	stage, err := s.primaryStage(ctx, req)
	if err != nil {
		return models.CandidateChain{}, err
	}
	return models.CandidateChain{Stages: []models.Stage{stage}}, nil
}

// Chain is FullChain preceded by a singleton persona stage when the caller
// chose an aggregator persona. The persona is tried once; any failure falls
// through to the whole primary-provider chain.
func (s *Selector) Chain(ctx context.Context, req models.SelectionRequest) (models.CandidateChain, error) {
	primary, err := s.primaryStage(ctx, req)
	if err != nil {
		return models.CandidateChain{}, err
	}

	persona, ok, err := s.personaStage(req.Persona)
	if err != nil {
		return models.CandidateChain{}, err
	}
	if !ok {
		return models.CandidateChain{Stages: []models.Stage{primary}}, nil
	}
	return models.CandidateChain{Stages: []models.Stage{persona, primary}}, nil
}

func (s *Selector) primaryStage(ctx context.Context, req models.SelectionRequest) (models.Stage, error) {
	first, err := s.ResolvePrimary(ctx, req)
	if err != nil {
		return models.Stage{}, err
	}

	rest := s.BuildFallbackChain(first)
	candidates := make([]models.Candidate, 0, len(rest)+1)
	candidates = append(candidates, s.primaryCandidate(first))
	for _, p := range rest {
		candidates = append(candidates, s.primaryCandidate(p))
	}
	return models.Stage{Name: stagePrimary, Candidates: candidates}, nil
}

func (s *Selector) personaStage(persona models.Persona) (models.Stage, bool, error) {
	if persona == "" || persona == models.PersonaDeepReasoning {
		return models.Stage{}, false, nil
	}
	if s.aggregator == nil || s.aggregatorProvider == "" {
		fiberlog.Warnf("Persona %q requested but no aggregator provider is configured, using primary chain", persona)
		return models.Stage{}, false, nil
	}

	profile, ok := s.aggregator.Lookup(string(persona))
	if !ok {
		return models.Stage{}, false, models.NewValidationError(fmt.Sprintf("unknown persona %q", persona), nil)
	}

	return models.Stage{
		Name: stagePersona,
		Candidates: []models.Candidate{{
			Provider: s.aggregatorProvider,
			Role:     models.ProviderAggregator,
			Profile:  profile,
		}},
		FallThroughOnAnyFailure: true,
	}, true, nil
}

func (s *Selector) primaryCandidate(p models.ModelProfile) models.Candidate {
	return models.Candidate{
		Provider: s.primaryProvider,
		Role:     models.ProviderPrimary,
		Profile:  p,
	}
}

// Personas lists the aggregator personas available to callers
func (s *Selector) Personas() []string {
	if s.aggregator == nil {
		return nil
	}
	return s.aggregator.Names()
}
