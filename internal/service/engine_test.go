package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anyexamai/backend/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(client ModelClient) (*generationEngine, *[]time.Duration) {
	var slept []time.Duration
	engine := &generationEngine{
		client: client,
		sleep:  func(d time.Duration) { slept = append(slept, d) },
	}
	return engine, &slept
}

func passthroughSteps(validate func(map[string]any) error) generationSteps {
	return generationSteps{
		Name:        "test",
		BuildPrompt: func() string { return "prompt" },
		Validate:    validate,
	}
}

func TestEngineAcceptsFirstAttempt(t *testing.T) {
	client := &fakeModelClient{responses: []string{`{"ok": true}`}}
	engine, slept := newTestEngine(client)

	raw, err := engine.Run(context.Background(), passthroughSteps(func(map[string]any) error { return nil }))
	require.NoError(t, err)
	assert.Equal(t, true, raw["ok"])
	assert.Equal(t, 1, client.calls)
	assert.Empty(t, *slept)
}

func TestEngineRetriesThenAccepts(t *testing.T) {
	client := &fakeModelClient{responses: []string{`{"n": 1}`, `{"n": 2}`}}
	engine, slept := newTestEngine(client)

	attempts := 0
	steps := passthroughSteps(func(raw map[string]any) error {
		attempts++
		if raw["n"].(float64) < 2 {
			return apperr.Validation("Schema validation failed", []string{"n too small"})
		}
		return nil
	})

	raw, err := engine.Run(context.Background(), steps)
	require.NoError(t, err)
	assert.Equal(t, float64(2), raw["n"])
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, []time.Duration{retryDelay}, *slept)
	assert.Equal(t, 2, attempts)
}

func TestEngineExhaustsValidationRetries(t *testing.T) {
	client := &fakeModelClient{responses: []string{`{"bad": true}`}}
	engine, slept := newTestEngine(client)

	steps := passthroughSteps(func(map[string]any) error {
		return apperr.Validation("Schema validation failed", []string{"missing passages", "wrong count"})
	})

	_, err := engine.Run(context.Background(), steps)
	require.Error(t, err)
	assert.Equal(t, maxAttempts, client.calls)
	// Sleeps happen between attempts, not after the last one.
	assert.Len(t, *slept, maxAttempts-1)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "Schema validation failed after 3 attempts", appErr.Message)

	allErrors, ok := appErr.Details["all_errors"].([]string)
	require.True(t, ok)
	assert.Len(t, allErrors, maxAttempts)
	assert.Contains(t, allErrors[0], "Attempt 1:")
	assert.Contains(t, allErrors[2], "Attempt 3:")
	assert.Equal(t, []string{"missing passages", "wrong count"}, appErr.Details["last_errors"])
}

func TestEngineRetriesModelErrors(t *testing.T) {
	modelErr := apperr.Model(errors.New("quota exceeded"), "prompt preview")
	client := &fakeModelClient{err: modelErr}
	engine, slept := newTestEngine(client)

	_, err := engine.Run(context.Background(), passthroughSteps(func(map[string]any) error { return nil }))
	require.Error(t, err)
	assert.Equal(t, maxAttempts, client.calls)
	assert.Len(t, *slept, maxAttempts-1)

	// A non-validation failure surfaces as-is, without the retry wrapper.
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindModel, appErr.Kind)
}

func TestEngineRetriesParseFailures(t *testing.T) {
	client := &fakeModelClient{responses: []string{"no json here"}}
	engine, _ := newTestEngine(client)

	_, err := engine.Run(context.Background(), passthroughSteps(func(map[string]any) error { return nil }))
	require.Error(t, err)
	assert.Equal(t, maxAttempts, client.calls)
	assert.True(t, apperr.IsKind(err, apperr.KindJSONParse))
}

func TestEngineRebuildsPromptPerAttempt(t *testing.T) {
	client := &fakeModelClient{responses: []string{"garbage"}}
	engine, _ := newTestEngine(client)

	builds := 0
	steps := generationSteps{
		Name:        "test",
		BuildPrompt: func() string { builds++; return "prompt" },
		Validate:    func(map[string]any) error { return nil },
	}

	_, err := engine.Run(context.Background(), steps)
	require.Error(t, err)
	assert.Equal(t, maxAttempts, builds)
}
