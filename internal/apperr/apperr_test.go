package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(KindModel, "generation call failed", nil, base)

	assert.Equal(t, "model_error: generation call failed: connection refused", err.Error())
	assert.ErrorIs(t, err, base)

	bare := New(KindConfiguration, "GEMINI_API_KEY is not set. Please set it in your .env file.", nil)
	assert.Equal(t, "configuration_error: GEMINI_API_KEY is not set. Please set it in your .env file.", bare.Error())
}

func TestAsUnwrapsThroughWrapping(t *testing.T) {
	inner := Validation("Schema validation failed", []string{"too few passages"})
	wrapped := fmt.Errorf("pipeline: %w", inner)

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.True(t, IsKind(wrapped, KindValidation))
	assert.False(t, IsKind(wrapped, KindModel))
}

func TestViolations(t *testing.T) {
	err := Validation("Schema validation failed", []string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, err.Violations())

	// Details that crossed a JSON boundary decode as []any.
	err = New(KindValidation, "msg", map[string]any{"errors": []any{"x", "y"}})
	assert.Equal(t, []string{"x", "y"}, err.Violations())

	assert.Nil(t, New(KindModel, "msg", nil).Violations())
}

func TestInputFlag(t *testing.T) {
	in := InvalidInput("Invalid difficulty band: 9.7", map[string]any{"valid_bands": []string{"7.0"}})
	assert.Equal(t, KindValidation, in.Kind)
	assert.True(t, in.IsInput())
	assert.NotNil(t, in.Details["valid_bands"])

	out := Validation("Schema validation failed", []string{"bad"})
	assert.False(t, out.IsInput())
}
