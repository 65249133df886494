// Package circuitbreaker keeps per-provider circuit state in Redis so every
// instance of the service shares one view of a failing provider.
package circuitbreaker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "HalfOpen"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

const (
	keyPrefix        = "adaptive_chat:breaker:"
	defaultFailures  = 5
	defaultSuccesses = 3
	defaultOpenFor   = 30 * time.Second
	defaultResetFor  = 2 * time.Minute
	redisTimeout     = time.Second
)

const (
	// KEYS: state, failures, successes, opened_at
	// ARGV: open_for_ms, now_ms
	// Returns 1 when the call may proceed.
	canExecuteScript = `
		local state = tonumber(redis.call('GET', KEYS[1]) or '0')
		if state ~= 1 then
			return 1
		end
		local openedAt = tonumber(redis.call('GET', KEYS[4]) or '0')
		if tonumber(ARGV[2]) - openedAt >= tonumber(ARGV[1]) then
			redis.call('SET', KEYS[1], 2)
			redis.call('SET', KEYS[3], 0)
			return 1
		end
		return 0
	`

	// KEYS: state, failures, successes
	// ARGV: success_threshold
	// Returns 2 when the circuit closed.
	recordSuccessScript = `
		local state = tonumber(redis.call('GET', KEYS[1]) or '0')
		redis.call('DEL', KEYS[2])
		if state ~= 2 then
			return 0
		end
		local count = redis.call('INCR', KEYS[3])
		if count >= tonumber(ARGV[1]) then
			redis.call('SET', KEYS[1], 0)
			redis.call('SET', KEYS[3], 0)
			return 2
		end
		return 1
	`

	// KEYS: state, failures, successes, opened_at
	// ARGV: failure_threshold, now_ms, reset_after_ms
	// Returns 1 when the circuit opened.
	recordFailureScript = `
		local state = tonumber(redis.call('GET', KEYS[1]) or '0')
		local failures = redis.call('INCR', KEYS[2])
		redis.call('PEXPIRE', KEYS[2], ARGV[3])
		if state == 2 or (state == 0 and failures >= tonumber(ARGV[1])) then
			redis.call('SET', KEYS[1], 1)
			redis.call('SET', KEYS[4], ARGV[2])
			redis.call('SET', KEYS[3], 0)
			return 1
		end
		return 0
	`
)

// Config holds the resolved breaker thresholds
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	OpenFor          time.Duration
	ResetAfter       time.Duration
}

// ConfigFrom applies defaults to the YAML circuit breaker section
func ConfigFrom(cfg models.CircuitBreakerConfig) Config {
	out := Config{
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		OpenFor:          time.Duration(cfg.TimeoutMs) * time.Millisecond,
		ResetAfter:       time.Duration(cfg.ResetAfterMs) * time.Millisecond,
	}
	if out.FailureThreshold <= 0 {
		out.FailureThreshold = defaultFailures
	}
	if out.SuccessThreshold <= 0 {
		out.SuccessThreshold = defaultSuccesses
	}
	if out.OpenFor <= 0 {
		out.OpenFor = defaultOpenFor
	}
	if out.ResetAfter <= 0 {
		out.ResetAfter = defaultResetFor
	}
	return out
}

// CircuitBreaker tracks one provider. Redis errors fail open: the call is allowed.
type CircuitBreaker struct {
	client   *redis.Client
	provider string
	config   Config
	keys     keys
}

type keys struct {
	state, failures, successes, openedAt string
}

func newKeys(provider string) keys {
	prefix := keyPrefix + provider + ":"
	return keys{
		state:     prefix + "state",
		failures:  prefix + "failures",
		successes: prefix + "successes",
		openedAt:  prefix + "opened_at",
	}
}

// NewForProvider creates the breaker for one provider identity
func NewForProvider(client *redis.Client, provider string, config Config) *CircuitBreaker {
	return &CircuitBreaker{
		client:   client,
		provider: provider,
		config:   config,
		keys:     newKeys(provider),
	}
}

func (cb *CircuitBreaker) CanExecute() bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	allowed, err := cb.client.Eval(ctx, canExecuteScript,
		[]string{cb.keys.state, cb.keys.failures, cb.keys.successes, cb.keys.openedAt},
		cb.config.OpenFor.Milliseconds(), time.Now().UnixMilli(),
	).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: %s state check failed, allowing call: %v", cb.provider, err)
		return true
	}
	return allowed == 1
}

func (cb *CircuitBreaker) RecordSuccess() {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	result, err := cb.client.Eval(ctx, recordSuccessScript,
		[]string{cb.keys.state, cb.keys.failures, cb.keys.successes},
		cb.config.SuccessThreshold,
	).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: %s failed to record success: %v", cb.provider, err)
		return
	}
	if result == 2 {
		fiberlog.Infof("CircuitBreaker: %s transitioned to Closed", cb.provider)
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	result, err := cb.client.Eval(ctx, recordFailureScript,
		[]string{cb.keys.state, cb.keys.failures, cb.keys.successes, cb.keys.openedAt},
		cb.config.FailureThreshold, time.Now().UnixMilli(), cb.config.ResetAfter.Milliseconds(),
	).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: %s failed to record failure: %v", cb.provider, err)
		return
	}
	if result == 1 {
		fiberlog.Warnf("CircuitBreaker: %s transitioned to Open", cb.provider)
	}
}

// GetState reads the stored state. Missing or unreadable state reports Closed.
func (cb *CircuitBreaker) GetState(ctx context.Context) State {
	raw, err := cb.client.Get(ctx, cb.keys.state).Result()
	if err != nil {
		if err != redis.Nil {
			fiberlog.Errorf("CircuitBreaker: %s failed to read state: %v", cb.provider, err)
		}
		return Closed
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Closed
	}
	return State(n)
}

// Reset clears all stored state for the provider
func (cb *CircuitBreaker) Reset(ctx context.Context) error {
	if err := cb.client.Del(ctx, cb.keys.state, cb.keys.failures, cb.keys.successes, cb.keys.openedAt).Err(); err != nil {
		return fmt.Errorf("failed to reset circuit breaker for %s: %w", cb.provider, err)
	}
	fiberlog.Infof("CircuitBreaker: Reset circuit breaker for %s", cb.provider)
	return nil
}
