package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anyexamai/backend/internal/apperr"
	"github.com/anyexamai/backend/internal/model"
	"github.com/anyexamai/backend/internal/repository"
	"github.com/anyexamai/backend/internal/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type WritingService interface {
	// GenerateTest produces a validated writing test (2 tasks with sample
	// responses) for the given module and band.
	GenerateTest(ctx context.Context, module, difficulty string) (*schema.WritingTest, error)
}

type writingService struct {
	engine  *generationEngine
	archive repository.ArchiveRepository
}

func NewWritingService(client ModelClient, archive repository.ArchiveRepository) WritingService {
	return &writingService{
		engine:  newGenerationEngine(client),
		archive: archive,
	}
}

func (s *writingService) GenerateTest(ctx context.Context, module, difficulty string) (*schema.WritingTest, error) {
	log.Info().Str("module", module).Str("difficulty", difficulty).Msg("Starting writing test generation")

	var guards []string
	if !schema.IsValidModule(module) {
		guards = append(guards, fmt.Sprintf("Invalid module: %s", module))
	}
	if !schema.IsValidBand(difficulty) {
		guards = append(guards, fmt.Sprintf("Invalid difficulty band: %s", difficulty))
	}
	if len(guards) > 0 {
		return nil, apperr.InvalidInput(strings.Join(guards, "; "), map[string]any{
			"errors":        guards,
			"valid_modules": schema.ValidModules,
			"valid_bands":   schema.ValidBands,
		})
	}

	raw, err := s.engine.Run(ctx, generationSteps{
		Name: "writing",
		BuildPrompt: func() string {
			return buildWritingPrompt(module, difficulty)
		},
		PostProcess: normalizeWriting,
		Validate: func(data map[string]any) error {
			return validateWritingSchema(data, module)
		},
	})
	if err != nil {
		return nil, err
	}

	var test schema.WritingTest
	if err := decodeRaw(raw, &test); err != nil {
		return nil, err
	}

	s.archiveTest(raw, module, difficulty)

	log.Info().Int("tasks", len(test.Tasks)).Msg("Writing test generated")
	return &test, nil
}

func (s *writingService) archiveTest(raw map[string]any, module, difficulty string) {
	payload, err := json.Marshal(raw)
	if err != nil {
		log.Error().Err(err).Msg("Failed to serialize writing test for archive")
		return
	}
	record := &model.GeneratedTest{
		TestID:         strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		TestType:       model.TestTypeWriting,
		Module:         module,
		DifficultyBand: difficulty,
		Payload:        payload,
	}
	if err := s.archive.Create(record); err != nil {
		log.Error().Err(err).Msg("Failed to archive writing test")
	}
}

func buildWritingPrompt(module, difficulty string) string {
	var task1Spec, task1Type, task1Prompt string
	if module == schema.ModuleAcademic {
		task1Spec = `Task 1 (Academic Report):
- Type: Describe a chart, graph, diagram, or process
- Possible visuals: Line Graph, Bar Chart, Pie Chart, Table, Process Diagram, Map, Mixed Chart
- Format: Objective, formal language describing trends/relationships
- Minimum: 150 words`
		task1Type = "Report_Chart"
		task1Prompt = `"visual_data": {"chart_type": "Bar Chart", "title": "Sample Chart Title", "description_text": "Description of the chart data", "time_period": "2015-2025", "units": "Appropriate units"}`
	} else {
		task1Spec = `Task 1 (General Training Letter):
- Type: Write a formal, semi-formal, or informal letter
- Purposes: Request, Complaint, Apology, Recommendation, Enquiry, Application, Invitation
- Format: Must match the appropriate register for recipient and situation
- Minimum: 150 words`
		task1Type = "Letter_Formal"
		task1Prompt = `"letter_context": {"situation": "Describe the situation", "purpose": "Complaint", "recipient_type": "Organization", "formality_level": "Formal", "bullet_points": ["Point 1", "Point 2", "Point 3"]}`
	}

	task2Spec := `Task 2 (Essay - Both Modules):
- Type: Write a formal essay
- Essay types: Opinion, Discussion, Problem and Solution, Advantages and Disadvantages
- Format: Clear thesis, supporting paragraphs with examples, formal conclusion
- Minimum: 250 words`

	return fmt.Sprintf(`You are an expert IELTS Writing examiner. Generate a complete IELTS %[1]s Writing test following OFFICIAL schema v3.0 specification.

CRITICAL REQUIREMENTS:
1. Module: %[1]s
2. Difficulty band: %[2]s
3. Total duration: 60 minutes
4. Exactly 2 tasks with sample responses at 3 different band levels (8, 6, 4)
5. Task weighting: Task 1 (33%%), Task 2 (67%%)
6. Assessment criteria: Task Achievement/Response, Coherence & Cohesion, Lexical Resource, Grammatical Range & Accuracy
7. Sample responses must be 100+ words minimum and realistic

%[3]s

%[4]s

IMPORTANT SCHEMA REQUIREMENTS FOR SAMPLE RESPONSES:
- Each response must have: band_score, word_count, response_text (100+ words), examiner_commentary, assessment_breakdown
- Assessment breakdown must include all 4 criteria with band-level feedback
- Provide 3 samples per task at bands 8, 6, and 4
- All fields must be strings (no abbreviations in assessment_breakdown)

RETURN ONLY VALID JSON (schema v3.0):
{
  "test_name": "IELTS Writing",
  "module": "%[1]s",
  "total_time_minutes": 60,
  "recommended_time_split": {
    "task_1_minutes": 20,
    "task_2_minutes": 40
  },
  "test_metadata": {
    "schema_version": "3.0",
    "generated_at": "%[5]s",
    "difficulty_band": "%[2]s",
    "test_source": "AI Generated Practice Test"
  },
  "tasks": [
    {
      "task_number": 1,
      "task_type": "%[6]s",
      "module_specific": "%[1]s",
      "minimum_word_count": 150,
      "recommended_word_count": 165,
      "assessment_weight": "33%%",
      "instructions": "You should spend about 20 minutes on this task. Write at least 150 words.",
      "task_context": "You are required to describe visual information in formal, objective language.",
      "prompt": {
        "task_instruction": "You should spend about 20 minutes on this task.",
        "context_information": "A chart/diagram/map is provided below.",
        %[7]s
      },
      "sample_responses": [
        {
          "band_score": 8,
          "word_count": 168,
          "response_text": "[Full response text 150+ words for band 8]",
          "examiner_commentary": "Commentary on the response",
          "assessment_breakdown": {
            "task_achievement_or_response": "Band 8: [Detailed feedback]",
            "coherence_and_cohesion": "Band 8: [Detailed feedback]",
            "lexical_resource": "Band 8: [Detailed feedback]",
            "grammatical_range_and_accuracy": "Band 8: [Detailed feedback]"
          }
        },
        {"band_score": 6, "word_count": 155, "response_text": "[Full response text for band 6]", "examiner_commentary": "Commentary", "assessment_breakdown": {"task_achievement_or_response": "Band 6: [Feedback]", "coherence_and_cohesion": "Band 6: [Feedback]", "lexical_resource": "Band 6: [Feedback]", "grammatical_range_and_accuracy": "Band 6: [Feedback]"}},
        {"band_score": 4, "word_count": 145, "response_text": "[Full response text for band 4]", "examiner_commentary": "Commentary", "assessment_breakdown": {"task_achievement_or_response": "Band 4: [Feedback]", "coherence_and_cohesion": "Band 4: [Feedback]", "lexical_resource": "Band 4: [Feedback]", "grammatical_range_and_accuracy": "Band 4: [Feedback]"}}
      ]
    },
    {
      "task_number": 2,
      "task_type": "Essay_Opinion",
      "module_specific": "%[1]s",
      "minimum_word_count": 250,
      "recommended_word_count": 280,
      "assessment_weight": "67%%",
      "instructions": "Write an essay of at least 250 words.",
      "task_context": "Respond to a point of view with a well-developed essay.",
      "prompt": {
        "task_instruction": "Write an essay responding to the following prompt.",
        "context_information": "Present your own ideas and supporting evidence.",
        "essay_context": {
          "topic": "Topic Title",
          "essay_type": "Opinion",
          "question_prompt": "Full essay question prompt",
          "key_topics": ["Topic 1", "Topic 2", "Topic 3"]
        }
      },
      "sample_responses": [
        {"band_score": 8, "word_count": 289, "response_text": "[Full essay 250+ words for band 8]", "examiner_commentary": "Commentary", "assessment_breakdown": {"task_achievement_or_response": "Band 8: [Feedback]", "coherence_and_cohesion": "Band 8: [Feedback]", "lexical_resource": "Band 8: [Feedback]", "grammatical_range_and_accuracy": "Band 8: [Feedback]"}},
        {"band_score": 6, "word_count": 261, "response_text": "[Full essay for band 6]", "examiner_commentary": "Commentary", "assessment_breakdown": {"task_achievement_or_response": "Band 6: [Feedback]", "coherence_and_cohesion": "Band 6: [Feedback]", "lexical_resource": "Band 6: [Feedback]", "grammatical_range_and_accuracy": "Band 6: [Feedback]"}},
        {"band_score": 4, "word_count": 254, "response_text": "[Full essay for band 4]", "examiner_commentary": "Commentary", "assessment_breakdown": {"task_achievement_or_response": "Band 4: [Feedback]", "coherence_and_cohesion": "Band 4: [Feedback]", "lexical_resource": "Band 4: [Feedback]", "grammatical_range_and_accuracy": "Band 4: [Feedback]"}}
      ]
    }
  ],
  "assessment": {
    "criteria": [
      "Task Achievement (Task 1) / Task Response (Task 2)",
      "Coherence and Cohesion",
      "Lexical Resource",
      "Grammatical Range and Accuracy"
    ],
    "scoring_methodology": {
      "description": "Each criterion scored independently on 0-9 band scale. Task 2 carries more weight (67%%) than Task 1 (33%%).",
      "task_weighting": {
        "task_1_weight": "33%%",
        "task_2_weight": "67%%"
      },
      "criterion_weighting": "All criteria equally weighted (25%% each)"
    },
    "band_scale": [
      {"band": 9, "skill_level": "Expert", "descriptor": "Fully operational command"},
      {"band": 8, "skill_level": "Very Good", "descriptor": "Fully operational with occasional inaccuracies"},
      {"band": 7, "skill_level": "Good", "descriptor": "Operational command with occasional inaccuracies"},
      {"band": 6, "skill_level": "Competent", "descriptor": "Effective command despite some inaccuracies"},
      {"band": 5, "skill_level": "Modest", "descriptor": "Partial command"},
      {"band": 4, "skill_level": "Limited", "descriptor": "Basic competence limited to familiar situations"},
      {"band": 3, "skill_level": "Extremely Limited", "descriptor": "Very basic information only"}
    ],
    "detailed_rubrics": {
      "Task Achievement (Task 1)": {
        "band_9": "Fully addresses all parts with excellent coverage",
        "band_8": "Addresses all parts adequately",
        "band_7": "Addresses task adequately with overview",
        "band_6": "Addresses task with key information covered",
        "band_5": "Attempts to address task with some key information"
      },
      "Task Response (Task 2)": {
        "band_9": "Fully addresses prompt with fully developed position",
        "band_8": "Addresses all parts with well-developed position",
        "band_7": "Addresses prompt with clear position",
        "band_6": "Addresses prompt with position presented",
        "band_5": "Addresses prompt to some extent"
      },
      "Coherence and Cohesion": {
        "band_9": "Logical organization with excellent cohesive devices",
        "band_8": "Logical organization with good cohesive devices",
        "band_7": "Coherent arrangement with range of devices",
        "band_6": "Coherent arrangement with some devices",
        "band_5": "Some organization with basic devices"
      },
      "Lexical Resource": {
        "band_9": "Sophisticated vocabulary used naturally",
        "band_8": "Wide range used accurately",
        "band_7": "Range used accurately and appropriately",
        "band_6": "Adequate vocabulary to convey meaning",
        "band_5": "Limited range with some inaccuracy"
      },
      "Grammatical Range and Accuracy": {
        "band_9": "Wide range of structures used accurately",
        "band_8": "Wide range with most sentences well-formed",
        "band_7": "Range of structures accurately used",
        "band_6": "Variety of structures, generally accurate",
        "band_5": "Some range with inaccuracy"
      }
    }
  }
}

Generate the complete test NOW with FULL sample responses (not placeholders). Return ONLY valid JSON:`,
		module, difficulty, task1Spec, task2Spec,
		time.Now().Format(time.RFC3339), task1Type, task1Prompt,
	)
}
