package fallback

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/catalog"
	"github.com/Egham-7/adaptive-chat/internal/services/classifier"
	"github.com/Egham-7/adaptive-chat/internal/services/continuation"
	"github.com/Egham-7/adaptive-chat/internal/services/gateway"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// GatewayResolver returns the gateway for a provider identity
type GatewayResolver interface {
	Get(ctx context.Context, provider string) (gateway.Gateway, error)
}

// Recorder persists the summary of a generate call
type Recorder interface {
	Record(ctx context.Context, record *models.CompletionRecord) error
}

// Orchestrator tries the candidates of a chain strictly in order until one answers
type Orchestrator struct {
	selector *catalog.Selector
	gateways GatewayResolver
	engine   *continuation.Engine
	recorder Recorder
}

// NewOrchestrator creates an orchestrator. recorder may be nil.
func NewOrchestrator(selector *catalog.Selector, gateways GatewayResolver, engine *continuation.Engine, recorder Recorder) *Orchestrator {
	return &Orchestrator{
		selector: selector,
		gateways: gateways,
		engine:   engine,
		recorder: recorder,
	}
}

// Generate produces one complete answer for the conversation.
//
// A non-retryable failure is returned unchanged. When the last candidate fails
// retryably the result is an exhausted AppError wrapping that failure.
func (o *Orchestrator) Generate(ctx context.Context, messages []models.Message, opts models.GenerateOptions) (*models.AIResponse, error) {
	if len(messages) == 0 {
		return nil, models.NewValidationError("messages must not be empty", nil)
	}

	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	startTime := time.Now()
	record := &models.CompletionRecord{
		RequestID:   requestID,
		Persona:     string(opts.Persona),
		ForcedModel: opts.Model,
	}

	resp, err := o.generate(ctx, withDocuments(messages, opts.Documents), opts, requestID, record)

	record.LatencyMs = time.Since(startTime).Milliseconds()
	if err != nil {
		record.ErrorMessage = err.Error()
	}
	o.record(ctx, requestID, record)

	return resp, err
}

func (o *Orchestrator) generate(
	ctx context.Context,
	messages []models.Message,
	opts models.GenerateOptions,
	requestID string,
	record *models.CompletionRecord,
) (*models.AIResponse, error) {
	startTime := time.Now()

	chain, err := o.selector.Chain(ctx, models.SelectionRequest{
		RequestID:     requestID,
		Messages:      messages,
		LatestMessage: models.LastUserMessage(messages),
		ForcedModel:   opts.Model,
		Persona:       opts.Persona,
	})
	if err != nil {
		return nil, err
	}

	candidates := chain.Flatten()
	if len(candidates) == 0 {
		return nil, models.NewInternalError("selection produced no candidates", nil)
	}
	logCandidates(requestID, candidates)

	var attempts []models.Attempt
	var fallbackReason string

	for i, candidate := range candidates {
		fiberlog.Infof("[%s] 🔄 Trying %s candidate [%d/%d]: %s",
			requestID, candidate.Stage, i+1, len(candidates), candidate.Key())
		record.CandidatesTried = i + 1

		outcome, err := o.attempt(ctx, candidate, messages, requestID)
		if err == nil {
			attempts = append(attempts, models.Attempt{
				Provider: candidate.Provider,
				Model:    candidate.Profile.ModelID,
				Stage:    candidate.Stage,
				Status:   models.AttemptSucceeded,
			})

			resp := &models.AIResponse{
				Content:            outcome.Content,
				ModelUsed:          candidate.Profile.Name,
				Provider:           candidate.Provider,
				FallbackOccurred:   i > 0,
				FallbackReason:     fallbackReason,
				ContinuationRounds: outcome.Rounds,
				TotalTokens:        outcome.TotalTokens,
				FinishReason:       outcome.FinishReason,
				ResponseTimeMs:     time.Since(startTime).Milliseconds(),
				Attempts:           attempts,
			}
			fillRecord(record, resp)

			fiberlog.Infof("[%s] ✅ SUCCESS with %s (rounds=%d, tokens=%d, finish=%s)",
				requestID, candidate.Key(), outcome.Rounds, outcome.TotalTokens, outcome.FinishReason)
			return resp, nil
		}

		failure := classifier.Classify(err)
		attempts = append(attempts, models.Attempt{
			Provider:  candidate.Provider,
			Model:     candidate.Profile.ModelID,
			Stage:     candidate.Stage,
			Status:    models.AttemptFailed,
			Reason:    failure.Reason,
			Retryable: failure.Retryable,
		})
		fiberlog.Warnf("[%s] ❌ FAILED %s: kind=%s retryable=%t reason=%s",
			requestID, candidate.Key(), failure.Kind, failure.Retryable, failure.Reason)

		last := i == len(candidates)-1
		advance := failure.Retryable || candidate.FallThroughOnAnyFailure
		switch {
		case !advance:
			fiberlog.Errorf("[%s] 💥 Non-retryable failure on %s, not falling back", requestID, candidate.Key())
			return nil, err
		case last:
			fiberlog.Errorf("[%s] 💥 All %d candidates failed", requestID, len(candidates))
			return nil, models.NewExhaustedError(len(candidates), failure.Reason, err)
		}

		fallbackReason = fmt.Sprintf("%s failed: %s", candidate.Key(), failure.Reason)
		record.FallbackOccurred = true
		record.FallbackReason = fallbackReason
	}

	// unreachable: the loop returns on the last candidate
	return nil, models.NewInternalError("fallback loop ended without a result", nil)
}

// attempt runs the continuation engine against one candidate
func (o *Orchestrator) attempt(
	ctx context.Context,
	candidate models.StagedCandidate,
	messages []models.Message,
	requestID string,
) (*models.AttemptOutcome, error) {
	gw, err := o.gateways.Get(ctx, candidate.Provider)
	if err != nil {
		return nil, err
	}
	return o.engine.Run(ctx, gw, candidate.Profile, messages, requestID)
}

func (o *Orchestrator) record(ctx context.Context, requestID string, record *models.CompletionRecord) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(context.WithoutCancel(ctx), record); err != nil {
		fiberlog.Errorf("[%s] Failed to record completion usage: %v", requestID, err)
	}
}

func fillRecord(record *models.CompletionRecord, resp *models.AIResponse) {
	record.Succeeded = true
	record.ModelUsed = resp.ModelUsed
	record.Provider = resp.Provider
	record.FallbackOccurred = resp.FallbackOccurred
	record.FallbackReason = resp.FallbackReason
	record.ContinuationRounds = resp.ContinuationRounds
	record.TotalTokens = resp.TotalTokens
	record.FinishReason = resp.FinishReason
}

// withDocuments inserts one system message per document after the leading
// system messages of the history.
func withDocuments(messages []models.Message, documents []models.Document) []models.Message {
	if len(documents) == 0 {
		return messages
	}

	insertAt := 0
	for insertAt < len(messages) && messages[insertAt].Role == models.RoleSystem {
		insertAt++
	}

	out := make([]models.Message, 0, len(messages)+len(documents))
	out = append(out, messages[:insertAt]...)
	for _, doc := range documents {
		out = append(out, models.Message{
			Role:    models.RoleSystem,
			Content: fmt.Sprintf("Document: %s\n%s", doc.Name, doc.Text),
		})
	}
	return append(out, messages[insertAt:]...)
}

func logCandidates(requestID string, candidates []models.StagedCandidate) {
	fiberlog.Infof("[%s] ═══ Fallback chain (%d candidates) ═══", requestID, len(candidates))
	for i, c := range candidates {
		fiberlog.Infof("[%s]    %d. %s: %s", requestID, i+1, c.Stage, c.Key())
	}
}
