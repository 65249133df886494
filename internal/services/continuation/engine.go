// Package continuation stitches length-truncated provider answers into one
// complete answer from a single (provider, model) candidate.
package continuation

import (
	"context"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/gateway"
	"github.com/Egham-7/adaptive-chat/internal/utils"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Engine drives continuation rounds against one gateway
type Engine struct {
	cfg models.ContinuationConfig
}

// NewEngine creates an engine. Zero values in cfg fall back to the defaults.
func NewEngine(cfg models.ContinuationConfig) *Engine {
	return &Engine{cfg: cfg.WithDefaults()}
}

// MaxRounds is the total number of calls one Run may make
func (e *Engine) MaxRounds() int {
	return e.cfg.MaxRounds
}

// Run obtains one complete answer from profile via gw.
//
// A failure of the first round is returned as is. A failure of any later
// round ends the loop and the text gathered so far is returned as the outcome.
func (e *Engine) Run(
	ctx context.Context,
	gw gateway.Gateway,
	profile models.ModelProfile,
	messages []models.Message,
	requestID string,
) (*models.AttemptOutcome, error) {
	startTime := time.Now()

	conversation := prepareMessages(profile, messages)
	var segments []string
	var totalTokens int64
	finish := models.FinishOther
	rounds := 0

	for round := 1; round <= e.cfg.MaxRounds; round++ {
		result, err := gw.Complete(ctx, newCompletionRequest(profile, conversation, requestID))
		if err != nil {
			if round == 1 {
				return nil, err
			}
			fiberlog.Warnf("[%s] ⚠️ Continuation round %d on %s/%s failed, keeping %d segment(s): %v",
				requestID, round, gw.Name(), profile.ModelID, len(segments), err)
			break
		}

		rounds = round
		finish = result.FinishReason
		totalTokens += result.TotalTokens
		if result.Text != "" {
			segments = append(segments, result.Text)
		}

		fiberlog.Debugf("[%s] Round %d/%d on %s/%s: finish=%s tokens=%d chars=%d",
			requestID, round, e.cfg.MaxRounds, gw.Name(), profile.ModelID, finish, result.TotalTokens, len(result.Text))

		if finish != models.FinishLength {
			break
		}
		if round == e.cfg.MaxRounds {
			fiberlog.Warnf("[%s] Continuation budget of %d rounds exhausted on %s/%s, answer may be incomplete",
				requestID, e.cfg.MaxRounds, gw.Name(), profile.ModelID)
			break
		}

		if result.Text != "" {
			conversation = append(conversation, models.Message{Role: models.RoleAssistant, Content: result.Text})
		}
		conversation = append(conversation, models.Message{Role: models.RoleUser, Content: e.cfg.Instruction})
	}

	return &models.AttemptOutcome{
		Content:      utils.ConcatSegments(segments),
		Rounds:       rounds,
		TotalTokens:  totalTokens,
		FinishReason: finish,
		Elapsed:      time.Since(startTime),
	}, nil
}

// prepareMessages copies the history, rewriting system turns when the
// profile does not accept the system role.
func prepareMessages(profile models.ModelProfile, messages []models.Message) []models.Message {
	out := make([]models.Message, len(messages), len(messages)+2)
	copy(out, messages)
	if profile.SupportsSystem {
		return out
	}
	for i := range out {
		if out[i].Role == models.RoleSystem {
			out[i].Role = profile.AlternateSystemRole()
		}
	}
	return out
}

func newCompletionRequest(profile models.ModelProfile, messages []models.Message, requestID string) models.CompletionRequest {
	return models.CompletionRequest{
		Model:           profile.ModelID,
		Messages:        messages,
		MaxTokens:       profile.MaxOutputTokens,
		TokenParamStyle: profile.TokenParamStyle,
		Temperature:     profile.Temperature,
		ReasoningEffort: profile.ReasoningEffort,
		Verbosity:       profile.Verbosity,
		RequestID:       requestID,
	}
}
