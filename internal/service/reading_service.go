package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anyexamai/backend/internal/apperr"
	"github.com/anyexamai/backend/internal/model"
	"github.com/anyexamai/backend/internal/repository"
	"github.com/anyexamai/backend/internal/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// excludedTopicsInPrompt caps how many previously used topics the prompt
// embeds; older ones age out of the exclusion list.
const excludedTopicsInPrompt = 50

type ReadingService interface {
	// GenerateTest produces a validated reading test at the requested band.
	// Topics already served (plus any caller-supplied exclusions) are embedded
	// in the prompt so the model is steered away from repetition; accepted
	// tests are archived and their topics recorded.
	GenerateTest(ctx context.Context, difficulty string, excludeTopics []string) (*schema.ReadingTest, error)
}

type readingService struct {
	engine  *generationEngine
	topics  repository.TopicRepository
	archive repository.ArchiveRepository
}

func NewReadingService(client ModelClient, topics repository.TopicRepository, archive repository.ArchiveRepository) ReadingService {
	return &readingService{
		engine:  newGenerationEngine(client),
		topics:  topics,
		archive: archive,
	}
}

func (s *readingService) GenerateTest(ctx context.Context, difficulty string, excludeTopics []string) (*schema.ReadingTest, error) {
	log.Info().Str("difficulty", difficulty).Msg("Starting reading test generation")

	if !schema.IsValidBand(difficulty) {
		return nil, apperr.InvalidInput(
			fmt.Sprintf("Invalid difficulty band: %s", difficulty),
			map[string]any{"valid_bands": schema.ValidBands})
	}

	exclude := s.collectExcludedTopics(excludeTopics)
	passageDifficulties := passageDifficultyProgression(difficulty)

	raw, err := s.engine.Run(ctx, generationSteps{
		Name: "reading",
		BuildPrompt: func() string {
			return buildReadingPrompt(difficulty, passageDifficulties, exclude)
		},
		PostProcess: normalizeReading,
		Validate:    validateReadingSchema,
	})
	if err != nil {
		return nil, err
	}

	var test schema.ReadingTest
	if err := decodeRaw(raw, &test); err != nil {
		return nil, err
	}

	s.recordTopics(test.TestMetadata.Topics)
	s.archiveTest(&test, raw, difficulty)

	log.Info().Int("passages", len(test.Passages)).Msg("Reading test generated")
	return &test, nil
}

func (s *readingService) collectExcludedTopics(extra []string) []string {
	recent, err := s.topics.Recent(excludedTopicsInPrompt)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load topic history, generating without exclusions")
	}
	exclude := append(recent, extra...)
	if len(exclude) > excludedTopicsInPrompt {
		exclude = exclude[len(exclude)-excludedTopicsInPrompt:]
	}
	return exclude
}

func (s *readingService) recordTopics(topics []string) {
	if len(topics) == 0 {
		return
	}
	if err := s.topics.Add(topics); err != nil {
		log.Error().Err(err).Msg("Failed to record used topics")
	}
}

func (s *readingService) archiveTest(test *schema.ReadingTest, raw map[string]any, difficulty string) {
	payload, err := json.Marshal(raw)
	if err != nil {
		log.Error().Err(err).Msg("Failed to serialize reading test for archive")
		return
	}
	record := &model.GeneratedTest{
		TestID:         strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		TestType:       model.TestTypeReading,
		Module:         test.TestType,
		DifficultyBand: difficulty,
		Payload:        payload,
	}
	if err := s.archive.Create(record); err != nil {
		log.Error().Err(err).Msg("Failed to archive reading test")
	}
}

// passageDifficultyProgression derives the per-passage bands: an easier
// opener, the requested band, and a harder closer.
func passageDifficultyProgression(difficulty string) [3]string {
	band, _ := strconv.ParseFloat(difficulty, 64)
	first := "6.5"
	if band <= 6.5 {
		first = "6.0"
	}
	third := "7.5"
	if band >= 7.5 {
		third = "8.0"
	}
	return [3]string{first, difficulty, third}
}

func buildReadingPrompt(difficulty string, passageDifficulties [3]string, excludeTopics []string) string {
	excludeSection := ""
	if len(excludeTopics) > 0 {
		excludeSection = fmt.Sprintf(`
TOPICS TO AVOID (previously used - DO NOT use these or very similar topics):
%s

`, strings.Join(excludeTopics, ", "))
	}

	return fmt.Sprintf(`You are an IELTS Academic Reading test expert. Generate a COMPLETE IELTS Academic Reading test.

TOPIC SELECTION:
- YOU must select 3 diverse, interesting, and academically appropriate topics
- Topics should be from different fields (e.g., science, history, social sciences, technology, arts, environment)
- Choose topics that would genuinely appear in IELTS Academic tests
%s
CRITICAL REQUIREMENTS:
1. Exactly 3 passages with YOUR SELECTED topics
2. EXACTLY 40 INDIVIDUAL questions total (13-14 per passage)
3. Each question MUST have its own unique question_number (1-40, sequential)
4. Each question MUST have an "answer" field
5. Each question MUST have an "explanation" field with ONE concise sentence explaining WHY the answer is correct
6. Passage length: 750-950 words EACH
7. Include selected topics in test_metadata.topics array

STRICT QUESTION FORMAT RULES (FOLLOW EXACTLY):

1. multiple_choice:
{"question_number": 1, "type": "multiple_choice", "question_text": "What is...?", "options": ["A. First option", "B. Second option", "C. Third option", "D. Fourth option"], "answer": "A", "explanation": "The passage states X in paragraph Y."}

2. identifying_information (True/False/Not Given):
{"question_number": 2, "type": "identifying_information", "statement": "Statement to evaluate", "answer": "True", "explanation": "Paragraph X explicitly states that..."}

3. identifying_writer_view (Yes/No/Not Given):
{"question_number": 3, "type": "identifying_writer_view", "statement": "Opinion statement", "answer": "Yes", "explanation": "The writer argues in paragraph X that..."}

4. short_answer:
{"question_number": 4, "type": "short_answer", "question_text": "What does X refer to?", "max_word_count": 3, "answer": "specific answer", "explanation": "The passage mentions this in paragraph X."}

5. sentence_completion (with options):
{"question_number": 5, "type": "sentence_completion", "incomplete_sentence": "The main purpose of X is to ______.", "options": ["A. option one", "B. option two", "C. option three", "D. option four"], "answer": "C", "explanation": "Paragraph X states that..."}

6. summary_completion (ONE blank per question - EACH BLANK IS A SEPARATE QUESTION):
{"question_number": 6, "type": "summary_completion", "summary_text": "Research shows that ______ is important.", "answer": "collaboration", "max_word_count": 2, "explanation": "The passage uses this term in paragraph X."}

7. matching_headings (use passage_reference and heading_options):
{"question_number": 7, "type": "matching_headings", "passage_reference": "Paragraph A", "heading_options": ["i. First heading", "ii. Second heading", "iii. Third heading", "iv. Fourth heading", "v. Fifth heading", "vi. Sixth heading", "vii. Seventh heading"], "answer": "iii", "explanation": "Paragraph A discusses..."}

8. matching_features (use statement and feature_options):
{"question_number": 8, "type": "matching_features", "statement": "Developed the theory of X", "feature_options": ["A. Researcher One", "B. Researcher Two", "C. Researcher Three", "D. Researcher Four"], "answer": "B", "explanation": "The passage attributes this to Researcher Two in paragraph X."}

CRITICAL RULES:
- EVERY question must be a SEPARATE object with its own question_number
- DO NOT bundle multiple blanks into one question
- Questions 1-13 for Passage 1, 14-26 for Passage 2, 27-40 for Passage 3
- Total must be EXACTLY 40 individual question objects
- EVERY question MUST have "explanation" field
- Include your selected topics in test_metadata.topics array

RETURN ONLY VALID JSON:
{
  "test_type": "IELTS Academic",
  "total_questions": 40,
  "total_duration_minutes": 60,
  "test_metadata": {
    "schema_version": "2.0",
    "generated_at": "%s",
    "difficulty_band": "%s",
    "test_source": "AI Generated Practice Test",
    "passage_sources": ["academic_journal", "book", "magazine"],
    "topics": ["Your Selected Topic 1", "Your Selected Topic 2", "Your Selected Topic 3"]
  },
  "passages": [
    {
      "passage_number": 1,
      "heading": "Title for your first topic",
      "text": "[FULL 750-950 WORD PASSAGE HERE]",
      "word_count": 850,
      "topic": "Your Selected Topic 1",
      "difficulty_band": "%s",
      "lexical_range_descriptor": "Academic vocabulary appropriate for band %s",
      "grammatical_complexity": "Complex sentences with passive voice and multiple clauses",
      "questions": [
        {"question_number": 1, "type": "multiple_choice", "question_text": "Question?", "options": ["A. opt1", "B. opt2", "C. opt3", "D. opt4"], "answer": "A", "explanation": "Evidence from passage."},
        {"question_number": 2, "type": "identifying_information", "statement": "Statement", "answer": "True", "explanation": "Why it's true."},
        ... (continue to 13 questions)
      ]
    },
    {
      "passage_number": 2,
      "heading": "Title for your second topic",
      "text": "[FULL 750-950 WORD PASSAGE HERE]",
      "word_count": 850,
      "topic": "Your Selected Topic 2",
      "difficulty_band": "%s",
      "questions": [
        {"question_number": 14, ...},
        ... (questions 14-26)
      ]
    },
    {
      "passage_number": 3,
      "heading": "Title for your third topic",
      "text": "[FULL 750-950 WORD PASSAGE HERE]",
      "word_count": 850,
      "topic": "Your Selected Topic 3",
      "difficulty_band": "%s",
      "questions": [
        {"question_number": 27, ...},
        ... (questions 27-40)
      ]
    }
  ],
  "answer_key": {"1": "A", "2": "True", "3": "False", ... (all 40 answers)}
}

Generate the COMPLETE test with FULL passage texts (750-950 words each) and ALL 40 individual questions. Return ONLY valid JSON:`,
		excludeSection,
		time.Now().Format(time.RFC3339),
		difficulty,
		passageDifficulties[0], passageDifficulties[0],
		passageDifficulties[1],
		passageDifficulties[2],
	)
}

// decodeRaw round-trips an accepted raw object into its typed shape.
func decodeRaw(raw map[string]any, out any) error {
	payload, err := json.Marshal(raw)
	if err != nil {
		return apperr.Wrap(apperr.KindJSONParse, "failed to serialize generated test", nil, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperr.Wrap(apperr.KindJSONParse, "failed to decode generated test", nil, err)
	}
	return nil
}
