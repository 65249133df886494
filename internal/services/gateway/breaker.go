package gateway

import (
	"context"

	"github.com/Egham-7/adaptive-chat/internal/models"
	"github.com/Egham-7/adaptive-chat/internal/services/classifier"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Breaker is the subset of circuit breaker behaviour the gateway needs
type Breaker interface {
	CanExecute() bool
	RecordSuccess()
	RecordFailure()
}

// breakerGateway short-circuits calls to a provider whose circuit is open
type breakerGateway struct {
	Gateway
	breaker Breaker
}

// WithBreaker wraps a gateway with a circuit breaker. A nil breaker returns the gateway unchanged.
func WithBreaker(g Gateway, b Breaker) Gateway {
	if b == nil {
		return g
	}
	return &breakerGateway{Gateway: g, breaker: b}
}

func (g *breakerGateway) Complete(ctx context.Context, req models.CompletionRequest) (*models.CompletionResult, error) {
	if !g.breaker.CanExecute() {
		fiberlog.Warnf("[%s] Circuit breaker is OPEN for provider %s, skipping", req.RequestID, g.Name())
		return nil, models.NewCircuitBreakerError(g.Name())
	}

	result, err := g.Gateway.Complete(ctx, req)
	if err != nil {
		// Only provider-side trouble counts against the circuit
		if classifier.Classify(err).Retryable {
			g.breaker.RecordFailure()
		}
		return nil, err
	}

	g.breaker.RecordSuccess()
	return result, nil
}
