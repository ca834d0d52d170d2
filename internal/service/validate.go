package service

import (
	"fmt"
	"strings"

	"github.com/anyexamai/backend/internal/apperr"
	"github.com/anyexamai/backend/internal/schema"
	"github.com/rs/zerolog/log"
)

// Validators are one-pass and accumulate every violation before raising, so
// a retry prompt can in principle react to all of them at once. Checks are
// purely structural (counts, enumerations, ranges, presence); content quality
// is never graded here. Validators never mutate their input.

func getNum(m map[string]any, key string) (int, bool) {
	f, ok := m[key].(float64)
	return int(f), ok
}

func getStr(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func requireKeys(m map[string]any, scope string, keys []string, errs *[]string) {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			if scope == "" {
				*errs = append(*errs, fmt.Sprintf("Missing required key: %s", k))
			} else {
				*errs = append(*errs, fmt.Sprintf("%s missing key: %s", scope, k))
			}
		}
	}
}

// validateReadingSchema enforces the reading structural contract: 3 passages,
// 40 sequentially numbered questions, passage word counts inside the
// acceptance gate, exactly 3 topics and a 40-entry answer key.
func validateReadingSchema(data map[string]any) error {
	var errs []string

	requireKeys(data, "", []string{
		"test_type", "passages", "total_questions", "total_duration_minutes", "test_metadata",
	}, &errs)

	testType := getStr(data, "test_type")
	if testType != "IELTS Academic" && testType != "IELTS General Training" {
		errs = append(errs, fmt.Sprintf("Invalid test_type: %v", data["test_type"]))
	}
	if n, _ := getNum(data, "total_questions"); n != schema.ReadingTotalQuestions {
		errs = append(errs, fmt.Sprintf("Invalid total_questions: must be 40, got %v", data["total_questions"]))
	}
	if n, _ := getNum(data, "total_duration_minutes"); n != schema.ReadingDurationMin {
		errs = append(errs, fmt.Sprintf("Invalid duration: must be 60 minutes, got %v", data["total_duration_minutes"]))
	}

	passages := asSlice(data["passages"])
	if len(passages) != schema.ReadingPassageCount {
		errs = append(errs, fmt.Sprintf("Must have exactly 3 passages, got %d", len(passages)))
	}

	totalQuestions := 0
	for i, pv := range passages {
		num := i + 1
		passage := asMap(pv)
		if passage == nil {
			errs = append(errs, fmt.Sprintf("Passage %d is not an object", num))
			continue
		}
		requireKeys(passage, fmt.Sprintf("Passage %d", num), []string{
			"passage_number", "heading", "text", "word_count", "questions",
		}, &errs)

		if pn, _ := getNum(passage, "passage_number"); pn != num {
			errs = append(errs, fmt.Sprintf("Passage number mismatch: expected %d, got %v", num, passage["passage_number"]))
		}
		wc, _ := getNum(passage, "word_count")
		if wc < schema.PassageMinWords || wc > schema.PassageMaxWords {
			errs = append(errs, fmt.Sprintf("Passage %d word count %d outside acceptable range (%d-%d)",
				num, wc, schema.PassageMinWords, schema.PassageMaxWords))
		}

		questions := asSlice(passage["questions"])
		totalQuestions += len(questions)
		for _, qv := range questions {
			q := asMap(qv)
			if q == nil {
				continue
			}
			for _, k := range []string{"question_number", "type", "answer"} {
				if _, ok := q[k]; !ok {
					errs = append(errs, fmt.Sprintf("Question %v missing key: %s", q["question_number"], k))
				}
			}
		}
	}
	if totalQuestions != schema.ReadingTotalQuestions {
		errs = append(errs, fmt.Sprintf("Total questions across passages: %d, expected 40", totalQuestions))
	}

	meta := asMap(data["test_metadata"])
	if getStr(meta, "schema_version") != schema.ReadingSchemaVersion {
		errs = append(errs, fmt.Sprintf("Wrong schema version: %v", meta["schema_version"]))
	}
	if !schema.IsValidBand(getStr(meta, "difficulty_band")) {
		errs = append(errs, fmt.Sprintf("Invalid difficulty_band: %v", meta["difficulty_band"]))
	}
	if topics := asSlice(meta["topics"]); len(topics) != 3 {
		errs = append(errs, "test_metadata must contain 'topics' array with exactly 3 topics")
	}

	if key := asMap(data["answer_key"]); len(key) != schema.ReadingTotalQuestions {
		errs = append(errs, fmt.Sprintf("Answer key has %d entries, expected 40", len(key)))
	}

	if len(errs) > 0 {
		return apperr.Validation("Schema validation failed", errs)
	}
	return nil
}

// validateWritingSchema distinguishes errors (block acceptance) from
// warnings (logged only): a non-standard time split or a missing sample
// band_score is tolerated, a wrong task count or word minimum is not.
func validateWritingSchema(data map[string]any, module string) error {
	var errs, warns []string

	requireKeys(data, "", []string{
		"test_name", "module", "total_time_minutes", "tasks", "assessment", "test_metadata",
	}, &errs)

	if getStr(data, "test_name") != "IELTS Writing" {
		errs = append(errs, fmt.Sprintf("Invalid test_name: %v", data["test_name"]))
	}
	if getStr(data, "module") != module {
		errs = append(errs, fmt.Sprintf("Invalid module: expected %s, got %v", module, data["module"]))
	}
	if n, _ := getNum(data, "total_time_minutes"); n != schema.WritingDurationMin {
		errs = append(errs, fmt.Sprintf("Invalid duration: must be 60 minutes, got %v", data["total_time_minutes"]))
	}

	if split := asMap(data["recommended_time_split"]); split != nil {
		t1, _ := getNum(split, "task_1_minutes")
		t2, _ := getNum(split, "task_2_minutes")
		if t1 != 20 || t2 != 40 {
			warns = append(warns, "Non-standard time split recommended")
		}
	}

	tasks := asSlice(data["tasks"])
	if len(tasks) != schema.WritingTaskCount {
		errs = append(errs, fmt.Sprintf("Must have exactly 2 tasks, got %d", len(tasks)))
	} else {
		task1 := asMap(tasks[0])
		if n, _ := getNum(task1, "task_number"); n != 1 {
			errs = append(errs, "Task 1 number mismatch")
		}
		if n, _ := getNum(task1, "minimum_word_count"); n != schema.Task1MinimumWords {
			errs = append(errs, fmt.Sprintf("Task 1 minimum word count must be 150, got %v", task1["minimum_word_count"]))
		}
		if getStr(task1, "assessment_weight") != schema.Task1Weight {
			warns = append(warns, "Task 1 assessment weight should be 33%")
		}
		task1Type := getStr(task1, "task_type")
		switch module {
		case schema.ModuleAcademic:
			if !strings.HasPrefix(task1Type, "Report_") {
				warns = append(warns, "Academic Task 1 should be a Report type")
			}
		case schema.ModuleGeneralTraining:
			if !strings.HasPrefix(task1Type, "Letter_") {
				warns = append(warns, "General Training Task 1 should be a Letter type")
			}
		}
		validateSampleResponses(task1, 1, &warns)

		task2 := asMap(tasks[1])
		if n, _ := getNum(task2, "task_number"); n != 2 {
			errs = append(errs, "Task 2 number mismatch")
		}
		if n, _ := getNum(task2, "minimum_word_count"); n != schema.Task2MinimumWords {
			errs = append(errs, fmt.Sprintf("Task 2 minimum word count must be 250, got %v", task2["minimum_word_count"]))
		}
		if getStr(task2, "assessment_weight") != schema.Task2Weight {
			warns = append(warns, "Task 2 assessment weight should be 67%")
		}
		if !strings.HasPrefix(getStr(task2, "task_type"), "Essay_") {
			warns = append(warns, "Task 2 should be an Essay type")
		}
		validateSampleResponses(task2, 2, &warns)
	}

	meta := asMap(data["test_metadata"])
	if getStr(meta, "schema_version") != schema.WritingSchemaVersion {
		errs = append(errs, fmt.Sprintf("Wrong schema version: %v, expected 3.0", meta["schema_version"]))
	}
	if !schema.IsValidBand(getStr(meta, "difficulty_band")) {
		errs = append(errs, fmt.Sprintf("Invalid difficulty_band: %v", meta["difficulty_band"]))
	}

	assessment := asMap(data["assessment"])
	for _, k := range []string{"criteria", "scoring_methodology", "band_scale"} {
		if _, ok := assessment[k]; !ok {
			errs = append(errs, fmt.Sprintf("Assessment missing %s", k))
		}
	}

	if len(errs) > 0 {
		if len(warns) > 0 {
			log.Warn().Strs("warnings", warns).Msg("Writing validation warnings")
		}
		return apperr.New(apperr.KindValidation, "Schema validation failed",
			map[string]any{"errors": errs, "warnings": warns})
	}
	if len(warns) > 0 {
		log.Warn().Strs("warnings", warns).Msg("Writing validation passed with warnings")
	}
	return nil
}

func validateSampleResponses(task map[string]any, taskNum int, warns *[]string) {
	samples := asSlice(task["sample_responses"])
	if len(samples) < 1 {
		*warns = append(*warns, fmt.Sprintf("Task %d has no sample responses", taskNum))
		return
	}
	for i, sv := range samples {
		sample := asMap(sv)
		if sample == nil {
			continue
		}
		if _, ok := sample["band_score"]; !ok {
			*warns = append(*warns, fmt.Sprintf("Task %d sample %d missing band_score", taskNum, i+1))
		}
		if _, ok := sample["response_text"]; !ok {
			*warns = append(*warns, fmt.Sprintf("Task %d sample %d missing response_text", taskNum, i+1))
		} else if len(getStr(sample, "response_text")) < schema.SampleResponseMinChars {
			*warns = append(*warns, fmt.Sprintf("Task %d sample %d response is too short", taskNum, i+1))
		}
	}
}

// validateListeningSchema enforces the listening structural contract: 4
// sections of 10 questions, transcripts long enough to split into audio
// blocks, and exact schema version and band tags.
func validateListeningSchema(data map[string]any) error {
	var errs []string

	requireKeys(data, "", []string{
		"test_type", "sections", "total_questions", "audio_duration_minutes", "test_metadata",
	}, &errs)

	if n, _ := getNum(data, "total_questions"); n != schema.ListeningTotalQuestions {
		errs = append(errs, fmt.Sprintf("total_questions must be 40, got %v", data["total_questions"]))
	}

	sections := asSlice(data["sections"])
	if len(sections) != schema.ListeningSectionCount {
		errs = append(errs, fmt.Sprintf("Must have exactly 4 sections, got %d", len(sections)))
	}

	totalQuestions := 0
	for i, sv := range sections {
		num := i + 1
		section := asMap(sv)
		if section == nil {
			errs = append(errs, fmt.Sprintf("Section %d is not an object", num))
			continue
		}
		requireKeys(section, fmt.Sprintf("Section %d", num), []string{
			"section_number", "section_type", "audio_transcript",
			"questions", "section_question_range", "section_instructions",
			"context", "speakers", "difficulty_band", "audio_duration_seconds",
		}, &errs)

		questions := asSlice(section["questions"])
		if len(questions) != schema.ListeningQuestionsPerSect {
			errs = append(errs, fmt.Sprintf("Section %d must have 10 questions, got %d", num, len(questions)))
		}
		totalQuestions += len(questions)

		transcript := getStr(section, "audio_transcript")
		if len(transcript) < schema.MinTranscriptLength {
			errs = append(errs, fmt.Sprintf("Section %d transcript too short (%d chars, minimum %d)",
				num, len(transcript), schema.MinTranscriptLength))
		}
	}
	if totalQuestions != schema.ListeningTotalQuestions {
		errs = append(errs, fmt.Sprintf("Total questions across sections: %d, expected 40", totalQuestions))
	}

	meta := asMap(data["test_metadata"])
	if getStr(meta, "schema_version") != schema.ListeningSchemaVersion {
		errs = append(errs, fmt.Sprintf("Wrong schema_version: %v", meta["schema_version"]))
	}
	if !schema.IsValidBand(getStr(meta, "difficulty_band")) {
		errs = append(errs, fmt.Sprintf("Invalid difficulty_band: %v", meta["difficulty_band"]))
	}

	if len(errs) > 0 {
		return apperr.Validation("Schema validation failed", errs)
	}
	return nil
}
