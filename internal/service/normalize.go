package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/anyexamai/backend/internal/schema"
	"github.com/rs/zerolog/log"
)

// Post-processing runs before validation: it repairs known model omissions
// (missing counts, missing metadata) and maps field-name variants to the one
// canonical shape downstream consumers read. Each test type has one pure
// rules-driven transformation; nothing here fabricates real answers, absent
// answers get an explicit empty-string sentinel so absence stays detectable.

// fieldRule copies source into target on a question map when the condition
// holds and the target is not already set.
type fieldRule struct {
	source string
	target string
	when   func(q map[string]any) bool
}

// questionTextKeys are the fields the frontend accepts as a question's text.
var questionTextKeys = []string{
	"question_text", "statement", "incomplete_sentence", "summary_text", "passage_reference",
}

func hasAnyKey(q map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := q[k]; ok {
			return true
		}
	}
	return false
}

func missingTextField(q map[string]any) bool { return !hasAnyKey(q, questionTextKeys) }

func isKind(kind string) func(q map[string]any) bool {
	return func(q map[string]any) bool {
		t, _ := q["type"].(string)
		return t == kind
	}
}

func noOptionsAlias(q map[string]any) bool {
	_, hasHeading := q["heading_options"]
	_, hasFeature := q["feature_options"]
	return !hasHeading && !hasFeature
}

// readingQuestionRules is the canonical-shape mapping for reading questions.
var readingQuestionRules = []fieldRule{
	{source: "text", target: "question_text", when: missingTextField},
	{source: "prompt", target: "question_text", when: missingTextField},
	{source: "options", target: "heading_options", when: func(q map[string]any) bool {
		return isKind("matching_headings")(q) && noOptionsAlias(q)
	}},
	{source: "options", target: "feature_options", when: func(q map[string]any) bool {
		return isKind("matching_features")(q) && noOptionsAlias(q)
	}},
}

func applyFieldRules(q map[string]any, rules []fieldRule) {
	for _, r := range rules {
		src, ok := q[r.source]
		if !ok {
			continue
		}
		if _, exists := q[r.target]; exists {
			continue
		}
		if r.when != nil && !r.when(q) {
			continue
		}
		q[r.target] = src
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

// normalizeReading repairs a raw reading test: fills missing passage word
// counts, rebuilds a short answer key from per-question answers, applies the
// field-alias rules and supplies explanation/answer placeholders.
func normalizeReading(data map[string]any) map[string]any {
	passages := asSlice(data["passages"])

	for i, p := range passages {
		passage := asMap(p)
		if passage == nil {
			continue
		}

		if wc, _ := passage["word_count"].(float64); wc == 0 {
			if text, _ := passage["text"].(string); text != "" {
				// Stored as float64 so the repaired value reads back the same
				// way as model-emitted numbers do after JSON decoding.
				passage["word_count"] = float64(countWords(text))
				log.Debug().Int("passage", i+1).Msg("Filled missing word_count")
			}
		}
		if _, ok := passage["questions"]; !ok {
			passage["questions"] = []any{}
			log.Warn().Int("passage", i+1).Msg("Passage had no questions array")
		}

		for _, qv := range asSlice(passage["questions"]) {
			q := asMap(qv)
			if q == nil {
				continue
			}
			applyFieldRules(q, readingQuestionRules)
			setDefault(q, "explanation", "Explanation not provided")
			if _, ok := q["answer"]; !ok {
				q["answer"] = ""
				log.Warn().Any("question", q["question_number"]).Msg("Question has no answer field")
			}
		}
	}

	// Rebuild the answer key whenever it is short; derived truth must stay
	// consistent with the questions it was built from.
	answerKey := asMap(data["answer_key"])
	if answerKey == nil {
		answerKey = map[string]any{}
	}
	if len(answerKey) < schema.ReadingTotalQuestions {
		for _, p := range passages {
			for _, qv := range asSlice(asMap(p)["questions"]) {
				q := asMap(qv)
				if q == nil {
					continue
				}
				num := questionNumberString(q["question_number"])
				if num == "" {
					continue
				}
				if ans, ok := q["answer"]; ok {
					answerKey[num] = ans
				}
			}
		}
		data["answer_key"] = answerKey
		log.Info().Int("entries", len(answerKey)).Msg("Rebuilt answer_key from questions")
	}

	return data
}

// writingPromptScaffold ensures every task carries the prompt subtree the
// frontend renders, deriving defaults from sibling fields when absent.
func normalizeWriting(data map[string]any) map[string]any {
	for idx, tv := range asSlice(data["tasks"]) {
		task := asMap(tv)
		if task == nil {
			continue
		}
		taskNum := idx + 1
		if n, ok := task["task_number"].(float64); ok {
			taskNum = int(n)
		}
		taskType, _ := task["task_type"].(string)

		prompt := asMap(task["prompt"])
		if prompt == nil {
			prompt = map[string]any{}
			task["prompt"] = prompt
			log.Warn().Int("task", taskNum).Msg("Task had no prompt, initialized empty")
		}

		if _, ok := prompt["task_instruction"]; !ok {
			if instructions, _ := task["instructions"].(string); instructions != "" {
				prompt["task_instruction"] = instructions
			} else {
				prompt["task_instruction"] = "Complete this task."
			}
		}
		if _, ok := prompt["context_information"]; !ok {
			ctxInfo, _ := task["task_context"].(string)
			prompt["context_information"] = ctxInfo
		}

		contextInfo, _ := prompt["context_information"].(string)

		if taskNum == 1 && strings.HasPrefix(taskType, "Report_") {
			setDefault(prompt, "visual_data", map[string]any{
				"chart_type":       "Mixed Chart",
				"description_text": orDefault(contextInfo, "Describe the data shown."),
				"title":            "Visual Data",
			})
		}
		if taskNum == 1 && strings.HasPrefix(taskType, "Letter_") {
			setDefault(prompt, "letter_context", map[string]any{
				"situation":       orDefault(contextInfo, "Write a letter."),
				"purpose":         "General",
				"formality_level": "Formal",
			})
		}
		if taskNum == 2 || strings.HasPrefix(taskType, "Essay_") {
			setDefault(prompt, "essay_context", map[string]any{
				"topic":           "Essay Topic",
				"essay_type":      orDefault(strings.TrimPrefix(taskType, "Essay_"), "Opinion"),
				"question_prompt": orDefault(contextInfo, "Write an essay."),
			})
		}

		if _, ok := task["sample_responses"]; !ok {
			task["sample_responses"] = []any{}
			log.Warn().Int("task", taskNum).Msg("Task had no sample_responses, initialized empty")
		}
	}
	return data
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// normalizeListening injects the caller-owned test id and the container-level
// defaults (metadata, playback rules, test flow) the schema requires.
func normalizeListening(data map[string]any, testID string) map[string]any {
	data["test_id"] = testID

	meta := asMap(data["test_metadata"])
	if meta == nil {
		meta = map[string]any{}
		data["test_metadata"] = meta
	}
	setDefault(meta, "schema_version", schema.ListeningSchemaVersion)
	setDefault(meta, "generated_at", time.Now().UTC().Format(time.RFC3339))
	setDefault(meta, "delivery_format", schema.DeliveryFormatComputerBased)
	setDefault(meta, "difficulty_band", "6.5")

	setDefault(data, "playback_rules", map[string]any{
		"play_once_only":          true,
		"no_rewind":               true,
		"no_pause_during_section": true,
		"notes_allowed":           true,
	})
	setDefault(data, "test_flow", map[string]any{
		"section_sequence": []any{1, 2, 3, 4},
		"timing_defaults": map[string]any{
			"pre_read_seconds":               30,
			"end_section_check_seconds":      30,
			"between_sections_pause_seconds": 30,
		},
	})

	return data
}

// questionNumberString renders a raw question_number (number or string) as
// the stringified answer-key key, or "" when absent.
func questionNumberString(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.Itoa(int(n))
	case string:
		return n
	}
	return ""
}
