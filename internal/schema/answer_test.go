package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerValueCoercion(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want AnswerValue
	}{
		{"string", `"True"`, "True"},
		{"integer", `42`, "42"},
		{"float keeps form", `9.30`, "9.30"},
		{"bool", `true`, "true"},
		{"list takes first", `["colour", "color"]`, "colour"},
		{"empty list", `[]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v AnswerValue
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &v))
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestAnswerEntryWireShape(t *testing.T) {
	t.Run("scalar without alternatives", func(t *testing.T) {
		out, err := json.Marshal(AnswerEntry{Primary: "library"})
		require.NoError(t, err)
		assert.JSONEq(t, `"library"`, string(out))
	})

	t.Run("list with alternatives", func(t *testing.T) {
		out, err := json.Marshal(AnswerEntry{Primary: "colour", Alternatives: []string{"color"}})
		require.NoError(t, err)
		assert.JSONEq(t, `["colour", "color"]`, string(out))
	})

	t.Run("round trip", func(t *testing.T) {
		var e AnswerEntry
		require.NoError(t, json.Unmarshal([]byte(`["9.30", "nine thirty"]`), &e))
		assert.Equal(t, "9.30", e.Primary)
		assert.Equal(t, []string{"nine thirty"}, e.Alternatives)
	})
}

func TestRoundToHalfBand(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{7.0, 7.0},
		{7.3, 7.5},
		{7.2, 7.0},
		{7.75, 8.0},
		{6.24, 6.0},
		{0, 0},
		{9, 9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundToHalfBand(tt.in), "%v", tt.in)
	}
}

func TestIsValidBand(t *testing.T) {
	assert.True(t, IsValidBand("5.0"))
	assert.True(t, IsValidBand("9.0"))
	assert.False(t, IsValidBand("4.5"))
	assert.False(t, IsValidBand("7.25"))
	assert.False(t, IsValidBand("7"))
}

func TestIsValidModule(t *testing.T) {
	assert.True(t, IsValidModule("Academic"))
	assert.True(t, IsValidModule("General Training"))
	assert.False(t, IsValidModule("academic"))
	assert.False(t, IsValidModule("GT"))
}
