package gateway

import (
	"context"
	"testing"

	"github.com/Egham-7/adaptive-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuildsOnceAndWrapsBreaker(t *testing.T) {
	var breakerCalls []string
	r := NewRegistry(map[string]models.ProviderConfig{
		"OpenAI":    {Kind: models.ProviderKindOpenAI, APIKey: "sk-test"},
		"anthropic": {Kind: models.ProviderKindAnthropic, APIKey: "ak-test"},
	}, func(provider string) Breaker {
		breakerCalls = append(breakerCalls, provider)
		return &countingBreaker{}
	})

	first, err := r.Get(context.Background(), "openai")
	require.NoError(t, err)
	second, err := r.Get(context.Background(), "OPENAI")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.IsType(t, &breakerGateway{}, first)
	assert.Equal(t, []string{"openai"}, breakerCalls)
	assert.Equal(t, []string{"anthropic", "openai"}, r.Names())
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry(nil, nil)

	_, err := r.Get(context.Background(), "missing")
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.ErrorTypeValidation, appErr.Type)
}

func TestRegistry_BuildFailureIsNotCached(t *testing.T) {
	r := NewRegistry(map[string]models.ProviderConfig{
		"broken": {Kind: "carrier-pigeon", APIKey: "x"},
	}, nil)

	_, err := r.Get(context.Background(), "broken")
	require.Error(t, err)
	_, err = r.Get(context.Background(), "broken")
	require.Error(t, err)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(map[string]models.ProviderConfig{
		"openai": {Kind: models.ProviderKindOpenAI, APIKey: "sk-test"},
	}, nil)
	stub := &stubGateway{name: "openai"}
	r.Register(stub)

	got, err := r.Get(context.Background(), "openai")
	require.NoError(t, err)
	assert.Same(t, stub, got)

	other := &stubGateway{name: "openrouter"}
	r.Register(other)
	got, err = r.Get(context.Background(), "openrouter")
	require.NoError(t, err)
	assert.Same(t, other, got)
}

func TestConfigHash_IgnoresRawKey(t *testing.T) {
	a, err := configHash(models.ProviderConfig{APIKey: "one"})
	require.NoError(t, err)
	b, err := configHash(models.ProviderConfig{APIKey: "two"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "one")
}
