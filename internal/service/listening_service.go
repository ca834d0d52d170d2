package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anyexamai/backend/config"
	"github.com/anyexamai/backend/internal/apperr"
	"github.com/anyexamai/backend/internal/model"
	"github.com/anyexamai/backend/internal/repository"
	"github.com/anyexamai/backend/internal/schema"
	"github.com/anyexamai/backend/internal/tts"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ListeningService interface {
	// GenerateTest produces a validated listening test with its 8 audio
	// blocks populated and rendered. Audio failures degrade per asset; a test
	// with partially failed audio is still returned, not retried.
	GenerateTest(ctx context.Context, difficulty string) (*schema.ListeningTest, error)
}

type listeningService struct {
	engine    *generationEngine
	synth     tts.Synthesizer
	archive   repository.ArchiveRepository
	outputDir string
}

func NewListeningService(client ModelClient, synth tts.Synthesizer, archive repository.ArchiveRepository, cfg *config.Config) ListeningService {
	return &listeningService{
		engine:    newGenerationEngine(client),
		synth:     synth,
		archive:   archive,
		outputDir: cfg.Audio.OutputDir,
	}
}

func (s *listeningService) GenerateTest(ctx context.Context, difficulty string) (*schema.ListeningTest, error) {
	log.Info().Str("difficulty", difficulty).Msg("Starting listening test generation")

	if !schema.IsValidBand(difficulty) {
		return nil, apperr.InvalidInput(
			fmt.Sprintf("Invalid difficulty band: %s", difficulty),
			map[string]any{"valid_bands": schema.ValidBands})
	}

	testID := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	raw, err := s.engine.Run(ctx, generationSteps{
		Name: "listening",
		BuildPrompt: func() string {
			return buildListeningPrompt(testID, difficulty)
		},
		PostProcess: func(data map[string]any) map[string]any {
			return normalizeListening(data, testID)
		},
		Validate: validateListeningSchema,
	})
	if err != nil {
		return nil, err
	}

	var test schema.ListeningTest
	if err := decodeRaw(raw, &test); err != nil {
		return nil, err
	}

	test.AudioBlocks = buildAudioBlocks(test.Sections)
	log.Info().Int("blocks", len(test.AudioBlocks)).Msg("Built audio blocks")

	renderAudioBlocks(ctx, s.synth, test.AudioBlocks, testID, s.outputDir)

	test.AnswerKey = buildListeningAnswerKey(test.Sections)

	s.archiveTest(&test, difficulty)

	log.Info().Str("test_id", testID).Msg("Listening test generated")
	return &test, nil
}

// buildListeningAnswerKey derives the answer key from per-question answers
// plus their accepted alternative spellings.
func buildListeningAnswerKey(sections []schema.ListeningSection) schema.AnswerKey {
	key := schema.AnswerKey{}
	for _, sec := range sections {
		for _, q := range sec.Questions {
			key[strconv.Itoa(q.Number)] = schema.AnswerEntry{
				Primary:      string(q.Answer),
				Alternatives: q.AlternativeAnswers,
			}
		}
	}
	return key
}

func (s *listeningService) archiveTest(test *schema.ListeningTest, difficulty string) {
	payload, err := json.Marshal(test)
	if err != nil {
		log.Error().Err(err).Msg("Failed to serialize listening test for archive")
		return
	}
	record := &model.GeneratedTest{
		TestID:         test.TestID,
		TestType:       model.TestTypeListening,
		Module:         test.TestType,
		DifficultyBand: difficulty,
		Payload:        payload,
	}
	if err := s.archive.Create(record); err != nil {
		log.Error().Err(err).Msg("Failed to archive listening test")
	}
}

func buildListeningPrompt(testID, difficulty string) string {
	return fmt.Sprintf(`You are an IELTS test content generator. Generate a COMPLETE IELTS Listening Test JSON.

CRITICAL REQUIREMENTS:
1. Output ONLY valid JSON - NO markdown, NO code blocks, NO explanations
2. The JSON must be parseable directly

TEST STRUCTURE:
- test_id: "%[1]s"
- test_type: "IELTS Academic Listening"
- total_questions: 40 (exactly)
- audio_duration_minutes: 30
- transfer_time_minutes: 0 (computer-based)
- 4 sections with 10 questions each

SECTION REQUIREMENTS:
Section 1 (Questions 1-10): social_dialogue - Two people in everyday social context (easiest)
Section 2 (Questions 11-20): social_monologue - One speaker on social topic
Section 3 (Questions 21-30): academic_discussion - 2-4 people in academic setting
Section 4 (Questions 31-40): academic_lecture - One speaker on academic topic (hardest)

TARGET DIFFICULTY: %[2]s

FOR EACH SECTION, include:
- section_number: 1, 2, 3, or 4
- section_type: appropriate type
- section_instructions: IELTS-style instructions
- context: {setting, purpose, description}
- speakers: {count, details: [{name, role, accent}]}
- difficulty_band: progressive ("5.5" for S1, "6.0" for S2, "6.5" for S3, "7.0" for S4)
- audio_duration_seconds: 420-600
- audio_transcript: FULL natural dialogue/monologue (minimum 600 words per section)
- section_question_range: {min, max}
- questions: exactly 10 questions with proper IELTS question types

NOTE: Do NOT include audio_assets - audio files will be generated separately.

=== QUESTION FORMAT (CRITICAL - FOLLOW EXACTLY) ===

For form_completion and note_completion questions, use this EXACT format:

1. "form_context" / "note_context": The TITLE of the notes section
2. "subheading": Optional category/subsection
3. "form_field" / "note_topic": The SENTENCE with a ______ placeholder where the answer goes.
   IMPORTANT: Use exactly 6 underscores (______) to mark where the blank/answer goes.

QUESTION TYPES TO USE:
- form_completion: For Section 1 (booking forms, applications, registrations)
- note_completion: For Section 2 and 4 (information notes, lecture notes)
- multiple_choice: For Section 3 (with question_text, options array with {label, text} objects, select_count: 1)
- sentence_completion: For any section (incomplete_sentence with ______ placeholder)
- matching: For Section 3 (item_to_match, items_to_match array, options array with {label, text} objects, matching_type)
- table_completion: For any section (table_title, table_context, cell_location)

EACH QUESTION MUST HAVE:
- question_number: 1-40 (continuous across sections)
- type: one of the types above
- answer: the correct answer (just the word/number, not the full sentence)
- alternative_answers: [] (acceptable spelling variations)
- answer_constraints: {instruction_text, max_words, allow_number: true, case_sensitive: false, hyphen_counts_as_one: true}
- max_word_count: 1, 2, or 3 depending on instruction
- explanation: brief explanation of correct answer

TRANSCRIPT REQUIREMENTS:
- Section 1: Casual conversation (booking, inquiry, complaint)
- Section 2: Information presentation (tour guide, orientation, instructions)
- Section 3: Academic discussion (students and tutor discussing assignment)
- Section 4: Academic lecture (university-level topic)
- Include speaker labels like "RECEPTIONIST:", "STUDENT:", "PROFESSOR:"
- Make transcripts natural with hesitations, corrections, filler words
- Answers must appear naturally in the transcript

RETURN FORMAT (keys at top level):
{
  "test_id": "%[1]s",
  "test_type": "IELTS Academic Listening",
  "total_questions": 40,
  "audio_duration_minutes": 30,
  "transfer_time_minutes": 0,
  "test_metadata": {
    "schema_version": "2.1",
    "generated_at": "%[3]s",
    "difficulty_band": "%[2]s",
    "delivery_format": "computer-based",
    "test_source": "AI Generated Practice Test",
    "audio_characteristics": {
      "accents": ["British", "American", "Australian", "New Zealand", "Canadian"],
      "speech_rate": "moderate",
      "background_noise": false
    }
  },
  "playback_rules": {
    "play_once_only": true,
    "no_rewind": true,
    "no_pause_during_section": true,
    "notes_allowed": true
  },
  "test_flow": {
    "section_sequence": [1, 2, 3, 4],
    "timing_defaults": {
      "pre_read_seconds": 30,
      "end_section_check_seconds": 30,
      "between_sections_pause_seconds": 30
    },
    "global_instructions": "You will hear four recordings. Answer the questions as you listen."
  },
  "sections": [ ... 4 section objects ... ]
}

OUTPUT THE COMPLETE JSON NOW:`,
		testID, difficulty, time.Now().UTC().Format(time.RFC3339))
}
