package service

import (
	"testing"

	"github.com/anyexamai/backend/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReadingFieldAliases(t *testing.T) {
	data := map[string]any{
		"passages": []any{
			map[string]any{
				"text": "Some passage text here.",
				"questions": []any{
					map[string]any{
						"question_number": float64(1),
						"type":            "short_answer",
						"text":            "What is discussed?",
						"answer":          "glaciers",
					},
					map[string]any{
						"question_number": float64(2),
						"type":            "matching_headings",
						"passage_reference": "Paragraph A",
						"options":         []any{"i. First", "ii. Second"},
						"answer":          "i",
					},
					map[string]any{
						"question_number": float64(3),
						"type":            "matching_features",
						"statement":       "Proposed the theory",
						"options":         []any{"A. Smith", "B. Jones"},
						"answer":          "B",
					},
				},
			},
		},
	}

	out := normalizeReading(data)

	questions := asSlice(asMap(asSlice(out["passages"])[0])["questions"])
	q1 := asMap(questions[0])
	assert.Equal(t, "What is discussed?", q1["question_text"])
	assert.Equal(t, "Explanation not provided", q1["explanation"])

	q2 := asMap(questions[1])
	assert.Equal(t, []any{"i. First", "ii. Second"}, q2["heading_options"])

	q3 := asMap(questions[2])
	assert.Equal(t, []any{"A. Smith", "B. Jones"}, q3["feature_options"])
	_, hasHeading := q3["heading_options"]
	assert.False(t, hasHeading)
}

func TestNormalizeReadingAnswerDefaults(t *testing.T) {
	data := map[string]any{
		"passages": []any{
			map[string]any{
				"questions": []any{
					map[string]any{"question_number": float64(1), "type": "short_answer", "question_text": "Q?"},
				},
			},
		},
	}

	out := normalizeReading(data)

	q := asMap(asSlice(asMap(asSlice(out["passages"])[0])["questions"])[0])
	// Absence is marked, never fabricated.
	assert.Equal(t, "", q["answer"])
}

func TestNormalizeReadingFillsWordCount(t *testing.T) {
	data := map[string]any{
		"passages": []any{
			map[string]any{
				"text":      "one two three four five",
				"questions": []any{},
			},
		},
	}

	out := normalizeReading(data)
	passage := asMap(asSlice(out["passages"])[0])
	assert.Equal(t, float64(5), passage["word_count"])
}

func TestNormalizeReadingRebuildsAnswerKey(t *testing.T) {
	questions := make([]any, 0, 4)
	for i := 1; i <= 4; i++ {
		questions = append(questions, map[string]any{
			"question_number": float64(i),
			"type":            "short_answer",
			"question_text":   "Q?",
			"answer":          "A",
		})
	}
	data := map[string]any{
		"passages":   []any{map[string]any{"questions": questions}},
		"answer_key": map[string]any{"1": "A"},
	}

	out := normalizeReading(data)

	key := asMap(out["answer_key"])
	require.Len(t, key, 4)
	for _, num := range []string{"1", "2", "3", "4"} {
		assert.Equal(t, "A", key[num])
	}
}

func TestNormalizeWritingPromptScaffolding(t *testing.T) {
	data := map[string]any{
		"tasks": []any{
			map[string]any{
				"task_number":  float64(1),
				"task_type":    "Report_Chart",
				"instructions": "Summarize the chart.",
				"task_context": "The chart shows rainfall.",
			},
			map[string]any{
				"task_number": float64(2),
				"task_type":   "Essay_Opinion",
			},
		},
	}

	out := normalizeWriting(data)
	tasks := asSlice(out["tasks"])

	task1 := asMap(tasks[0])
	prompt1 := asMap(task1["prompt"])
	require.NotNil(t, prompt1)
	assert.Equal(t, "Summarize the chart.", prompt1["task_instruction"])
	assert.Equal(t, "The chart shows rainfall.", prompt1["context_information"])
	visual := asMap(prompt1["visual_data"])
	require.NotNil(t, visual)
	assert.Equal(t, "The chart shows rainfall.", visual["description_text"])
	assert.NotNil(t, task1["sample_responses"])

	task2 := asMap(tasks[1])
	prompt2 := asMap(task2["prompt"])
	require.NotNil(t, prompt2)
	assert.Equal(t, "Complete this task.", prompt2["task_instruction"])
	essay := asMap(prompt2["essay_context"])
	require.NotNil(t, essay)
	assert.Equal(t, "Opinion", essay["essay_type"])
}

func TestNormalizeWritingLetterContext(t *testing.T) {
	data := map[string]any{
		"tasks": []any{
			map[string]any{
				"task_number":  float64(1),
				"task_type":    "Letter_Formal",
				"task_context": "You lost an item on a train.",
			},
		},
	}

	out := normalizeWriting(data)
	prompt := asMap(asMap(asSlice(out["tasks"])[0])["prompt"])
	letter := asMap(prompt["letter_context"])
	require.NotNil(t, letter)
	assert.Equal(t, "You lost an item on a train.", letter["situation"])
	assert.Equal(t, "Formal", letter["formality_level"])
}

func TestNormalizeWritingKeepsExistingPrompt(t *testing.T) {
	existing := map[string]any{
		"task_instruction":    "Original instruction",
		"context_information": "Original context",
		"visual_data":         map[string]any{"chart_type": "Bar Chart"},
	}
	data := map[string]any{
		"tasks": []any{
			map[string]any{
				"task_number": float64(1),
				"task_type":   "Report_Chart",
				"prompt":      existing,
			},
		},
	}

	out := normalizeWriting(data)
	prompt := asMap(asMap(asSlice(out["tasks"])[0])["prompt"])
	assert.Equal(t, "Original instruction", prompt["task_instruction"])
	assert.Equal(t, "Bar Chart", asMap(prompt["visual_data"])["chart_type"])
}

func TestNormalizeListeningDefaults(t *testing.T) {
	data := map[string]any{
		"test_id": "model-made-this-up",
	}

	out := normalizeListening(data, "abc12345")

	// The caller-generated id always wins over whatever the model emitted.
	assert.Equal(t, "abc12345", out["test_id"])

	meta := asMap(out["test_metadata"])
	require.NotNil(t, meta)
	assert.Equal(t, schema.ListeningSchemaVersion, meta["schema_version"])
	assert.Equal(t, schema.DeliveryFormatComputerBased, meta["delivery_format"])
	assert.NotEmpty(t, meta["generated_at"])

	rules := asMap(out["playback_rules"])
	require.NotNil(t, rules)
	assert.Equal(t, true, rules["play_once_only"])

	flow := asMap(out["test_flow"])
	require.NotNil(t, flow)
	assert.NotNil(t, flow["timing_defaults"])
}

func TestNormalizeListeningKeepsExistingMetadata(t *testing.T) {
	data := map[string]any{
		"test_metadata": map[string]any{
			"schema_version":  "2.1",
			"difficulty_band": "7.5",
		},
	}

	out := normalizeListening(data, "abc12345")
	meta := asMap(out["test_metadata"])
	assert.Equal(t, "7.5", meta["difficulty_band"])
}
