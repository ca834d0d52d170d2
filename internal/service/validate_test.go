package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/anyexamai/backend/internal/apperr"
	"github.com/anyexamai/backend/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validReadingData() map[string]any {
	passages := make([]any, 0, 3)
	num := 1
	counts := []int{13, 13, 14}
	answerKey := map[string]any{}
	for p := 0; p < 3; p++ {
		questions := make([]any, 0, counts[p])
		for i := 0; i < counts[p]; i++ {
			questions = append(questions, map[string]any{
				"question_number": float64(num),
				"type":            "short_answer",
				"question_text":   "What?",
				"answer":          "something",
				"explanation":     "Stated in the passage.",
			})
			answerKey[fmt.Sprintf("%d", num)] = "something"
			num++
		}
		passages = append(passages, map[string]any{
			"passage_number": float64(p + 1),
			"heading":        "A Heading",
			"text":           "Passage text.",
			"word_count":     float64(850),
			"questions":      questions,
		})
	}
	return map[string]any{
		"test_type":              "IELTS Academic",
		"total_questions":        float64(40),
		"total_duration_minutes": float64(60),
		"test_metadata": map[string]any{
			"schema_version":  "2.0",
			"difficulty_band": "7.0",
			"topics":          []any{"Marine Biology", "Urban Planning", "Astronomy"},
		},
		"passages":   passages,
		"answer_key": answerKey,
	}
}

func TestValidateReadingSchemaAccepts(t *testing.T) {
	assert.NoError(t, validateReadingSchema(validReadingData()))
}

func TestValidateReadingSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		message string
	}{
		{
			"wrong passage count",
			func(d map[string]any) { d["passages"] = asSlice(d["passages"])[:2] },
			"Must have exactly 3 passages, got 2",
		},
		{
			"word count out of range",
			func(d map[string]any) { asMap(asSlice(d["passages"])[0])["word_count"] = float64(300) },
			"Passage 1 word count 300 outside acceptable range (500-1200)",
		},
		{
			"wrong schema version",
			func(d map[string]any) { asMap(d["test_metadata"])["schema_version"] = "1.0" },
			"Wrong schema version: 1.0",
		},
		{
			"bad difficulty band",
			func(d map[string]any) { asMap(d["test_metadata"])["difficulty_band"] = "7.2" },
			"Invalid difficulty_band: 7.2",
		},
		{
			"wrong topic count",
			func(d map[string]any) { asMap(d["test_metadata"])["topics"] = []any{"Only One"} },
			"test_metadata must contain 'topics' array with exactly 3 topics",
		},
		{
			"invalid test type",
			func(d map[string]any) { d["test_type"] = "TOEFL" },
			"Invalid test_type: TOEFL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validReadingData()
			tt.mutate(data)

			err := validateReadingSchema(data)
			require.Error(t, err)
			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Contains(t, appErr.Violations(), tt.message)
		})
	}
}

func TestValidateReadingSchemaShortQuestions(t *testing.T) {
	data := validReadingData()
	p1 := asMap(asSlice(data["passages"])[0])
	p1["questions"] = asSlice(p1["questions"])[:10]

	err := validateReadingSchema(data)
	require.Error(t, err)
	appErr, _ := apperr.As(err)
	assert.Contains(t, appErr.Violations(), "Total questions across passages: 37, expected 40")
}

func validWritingData(module string) map[string]any {
	sample := map[string]any{
		"band_score":    float64(7.0),
		"response_text": strings.Repeat("A thorough, well-developed model answer sentence. ", 5),
	}
	return map[string]any{
		"test_name":          "IELTS Writing",
		"module":             module,
		"total_time_minutes": float64(60),
		"recommended_time_split": map[string]any{
			"task_1_minutes": float64(20),
			"task_2_minutes": float64(40),
		},
		"test_metadata": map[string]any{
			"schema_version":  "3.0",
			"difficulty_band": "7.0",
		},
		"tasks": []any{
			map[string]any{
				"task_number":        float64(1),
				"task_type":          "Report_Chart",
				"minimum_word_count": float64(150),
				"assessment_weight":  "33%",
				"sample_responses":   []any{sample},
			},
			map[string]any{
				"task_number":        float64(2),
				"task_type":          "Essay_Opinion",
				"minimum_word_count": float64(250),
				"assessment_weight":  "67%",
				"sample_responses":   []any{sample},
			},
		},
		"assessment": map[string]any{
			"criteria":            []any{"Task Achievement"},
			"scoring_methodology": map[string]any{},
			"band_scale":          []any{},
		},
	}
}

func TestValidateWritingSchemaAccepts(t *testing.T) {
	assert.NoError(t, validateWritingSchema(validWritingData("Academic"), "Academic"))
}

func TestValidateWritingSchemaWarningsDoNotBlock(t *testing.T) {
	data := validWritingData("Academic")
	tasks := asSlice(data["tasks"])
	// Non-standard weight and a GT-style task type are warnings, not errors.
	asMap(tasks[0])["assessment_weight"] = "30%"
	asMap(tasks[0])["task_type"] = "Letter_Formal"
	asMap(tasks[0])["sample_responses"] = []any{}

	assert.NoError(t, validateWritingSchema(data, "Academic"))
}

func TestValidateWritingSchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		message string
	}{
		{
			"wrong task count",
			func(d map[string]any) { d["tasks"] = asSlice(d["tasks"])[:1] },
			"Must have exactly 2 tasks, got 1",
		},
		{
			"wrong task 1 minimum",
			func(d map[string]any) { asMap(asSlice(d["tasks"])[0])["minimum_word_count"] = float64(100) },
			"Task 1 minimum word count must be 150, got 100",
		},
		{
			"wrong task 2 minimum",
			func(d map[string]any) { asMap(asSlice(d["tasks"])[1])["minimum_word_count"] = float64(200) },
			"Task 2 minimum word count must be 250, got 200",
		},
		{
			"module mismatch",
			func(d map[string]any) { d["module"] = "General Training" },
			"Invalid module: expected Academic, got General Training",
		},
		{
			"wrong schema version",
			func(d map[string]any) { asMap(d["test_metadata"])["schema_version"] = "2.0" },
			"Wrong schema version: 2.0, expected 3.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validWritingData("Academic")
			tt.mutate(data)

			err := validateWritingSchema(data, "Academic")
			require.Error(t, err)
			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Contains(t, appErr.Violations(), tt.message)
		})
	}
}

func TestValidateWritingSchemaCarriesWarningsInDetails(t *testing.T) {
	data := validWritingData("Academic")
	asMap(asSlice(data["tasks"])[0])["minimum_word_count"] = float64(100)
	asMap(asSlice(data["tasks"])[0])["assessment_weight"] = "30%"

	err := validateWritingSchema(data, "Academic")
	require.Error(t, err)
	appErr, _ := apperr.As(err)
	warns, ok := appErr.Details["warnings"].([]string)
	require.True(t, ok)
	assert.Contains(t, warns, "Task 1 assessment weight should be 33%")
}

func validListeningData() map[string]any {
	sections := make([]any, 0, 4)
	num := 1
	for s := 1; s <= 4; s++ {
		questions := make([]any, 0, 10)
		for i := 0; i < 10; i++ {
			questions = append(questions, map[string]any{
				"question_number": float64(num),
				"type":            "note_completion",
				"note_topic":      "The ______ is closed.",
				"answer":          "library",
			})
			num++
		}
		sections = append(sections, map[string]any{
			"section_number":         float64(s),
			"section_type":           "social_dialogue",
			"section_instructions":   "Complete the notes.",
			"context":                map[string]any{"setting": "office"},
			"speakers":               map[string]any{"count": float64(2)},
			"difficulty_band":        "6.0",
			"audio_duration_seconds": float64(480),
			"audio_transcript":       dialogueTranscript(30),
			"section_question_range": map[string]any{"min": float64((s-1)*10 + 1), "max": float64(s * 10)},
			"questions":              questions,
		})
	}
	return map[string]any{
		"test_type":              "IELTS Academic Listening",
		"total_questions":        float64(40),
		"audio_duration_minutes": float64(30),
		"test_metadata": map[string]any{
			"schema_version":  "2.1",
			"difficulty_band": "7.0",
		},
		"sections": sections,
	}
}

func TestValidateListeningSchemaAccepts(t *testing.T) {
	assert.NoError(t, validateListeningSchema(validListeningData()))
}

func TestValidateListeningSchemaViolations(t *testing.T) {
	t.Run("short transcript", func(t *testing.T) {
		data := validListeningData()
		asMap(asSlice(data["sections"])[1])["audio_transcript"] = "too short"

		err := validateListeningSchema(data)
		require.Error(t, err)
		appErr, _ := apperr.As(err)
		assert.Contains(t, appErr.Violations(),
			fmt.Sprintf("Section 2 transcript too short (9 chars, minimum %d)", schema.MinTranscriptLength))
	})

	t.Run("wrong question count", func(t *testing.T) {
		data := validListeningData()
		sec := asMap(asSlice(data["sections"])[0])
		sec["questions"] = asSlice(sec["questions"])[:8]

		err := validateListeningSchema(data)
		require.Error(t, err)
		appErr, _ := apperr.As(err)
		assert.Contains(t, appErr.Violations(), "Section 1 must have 10 questions, got 8")
	})

	t.Run("wrong section count", func(t *testing.T) {
		data := validListeningData()
		data["sections"] = asSlice(data["sections"])[:3]

		err := validateListeningSchema(data)
		require.Error(t, err)
		appErr, _ := apperr.As(err)
		assert.Contains(t, appErr.Violations(), "Must have exactly 4 sections, got 3")
	})

	t.Run("wrong schema version", func(t *testing.T) {
		data := validListeningData()
		asMap(data["test_metadata"])["schema_version"] = "2.0"

		err := validateListeningSchema(data)
		require.Error(t, err)
		appErr, _ := apperr.As(err)
		assert.Contains(t, appErr.Violations(), "Wrong schema_version: 2.0")
	})
}
