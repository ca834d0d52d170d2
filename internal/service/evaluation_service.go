package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/anyexamai/backend/internal/apperr"
	"github.com/anyexamai/backend/internal/schema"
	"github.com/rs/zerolog/log"
)

// EvaluationRequest carries a submitted writing response and its context.
type EvaluationRequest struct {
	UserResponse string
	TaskNumber   int
	Module       string
	Difficulty   string
	TaskPrompt   string
}

type EvaluationService interface {
	// EvaluateResponse scores a submitted writing response in a single model
	// pass. Input violations are terminal caller errors; a malformed scoring
	// response surfaces as an error rather than being retried, since scoring
	// quality depends on one deliberative pass rather than structural luck.
	EvaluateResponse(ctx context.Context, req EvaluationRequest) (*schema.EvaluationResult, int, error)
}

type evaluationService struct {
	client ModelClient
}

func NewEvaluationService(client ModelClient) EvaluationService {
	return &evaluationService{client: client}
}

func (s *evaluationService) EvaluateResponse(ctx context.Context, req EvaluationRequest) (*schema.EvaluationResult, int, error) {
	log.Info().Int("task", req.TaskNumber).Str("module", req.Module).
		Str("difficulty", req.Difficulty).Msg("Starting writing evaluation")

	wordCount, err := validateEvaluationInput(req)
	if err != nil {
		return nil, 0, err
	}

	prompt := buildEvaluationPrompt(req, wordCount)
	responseText, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, 0, err
	}

	raw, err := ExtractJSON(responseText)
	if err != nil {
		return nil, 0, err
	}
	if _, ok := raw["task_number"]; !ok {
		raw["task_number"] = req.TaskNumber
	}

	var result schema.EvaluationResult
	if err := decodeRaw(raw, &result); err != nil {
		return nil, 0, err
	}
	if err := validateEvaluationResult(&result); err != nil {
		return nil, 0, err
	}

	// Off-grid overall bands are corrected, not rejected.
	result.OverallBand = schema.RoundToHalfBand(result.OverallBand)

	log.Info().Float64("overall_band", result.OverallBand).Msg("Writing evaluation complete")
	return &result, wordCount, nil
}

// validateEvaluationInput accumulates every caller-input violation into one
// error, raised before any model call.
func validateEvaluationInput(req EvaluationRequest) (int, error) {
	var errs []string

	if req.TaskNumber != 1 && req.TaskNumber != 2 {
		errs = append(errs, fmt.Sprintf("Invalid task_number: %d. Must be 1 or 2.", req.TaskNumber))
	}
	if !schema.IsValidModule(req.Module) {
		errs = append(errs, fmt.Sprintf("Invalid module: %s. Must be 'Academic' or 'General Training'.", req.Module))
	}
	if !schema.IsValidBand(req.Difficulty) {
		errs = append(errs, fmt.Sprintf("Invalid difficulty: %s. Must be between 5.0 and 9.0 (0.5 increments).", req.Difficulty))
	}

	wordCount := len(strings.Fields(req.UserResponse))
	if wordCount < schema.EvaluationMinimumWords {
		errs = append(errs, fmt.Sprintf("Response too short: %d words. Minimum required: %d words.",
			wordCount, schema.EvaluationMinimumWords))
	}

	if len(errs) > 0 {
		log.Error().Strs("errors", errs).Msg("Evaluation input validation failed")
		return 0, apperr.InvalidInput("Input validation failed", map[string]any{"errors": errs})
	}
	return wordCount, nil
}

// validateEvaluationResult enforces the scored-result shape: integer bands in
// [0,9], substantive feedback per criterion, and non-trivial summary fields.
func validateEvaluationResult(result *schema.EvaluationResult) error {
	var errs []string

	if result.TaskNumber != 1 && result.TaskNumber != 2 {
		errs = append(errs, fmt.Sprintf("task_number must be 1 or 2, got %d", result.TaskNumber))
	}
	if result.OverallBand < 0 || result.OverallBand > 9 {
		errs = append(errs, fmt.Sprintf("overall_band must be in [0,9], got %v", result.OverallBand))
	}
	for _, c := range result.Criteria() {
		if c.Score.Band < 0 || c.Score.Band > 9 {
			errs = append(errs, fmt.Sprintf("%s band must be in [0,9], got %d", c.Name, c.Score.Band))
		}
		if len(c.Score.Feedback) < 20 {
			errs = append(errs, fmt.Sprintf("%s feedback too short (minimum 20 characters)", c.Name))
		}
	}
	for name, value := range map[string]string{
		"strengths":               result.Strengths,
		"weaknesses":              result.Weaknesses,
		"improvement_suggestions": result.ImprovementSuggestions,
	} {
		if len(value) < 10 {
			errs = append(errs, fmt.Sprintf("%s too short (minimum 10 characters)", name))
		}
	}

	if len(errs) > 0 {
		log.Error().Strs("errors", errs).Msg("Evaluation response validation failed")
		return apperr.Validation("Evaluation response validation failed", errs)
	}
	return nil
}

func buildEvaluationPrompt(req EvaluationRequest, wordCount int) string {
	taskCriterion := "Task Response"
	if req.TaskNumber == 1 {
		taskCriterion = "Task Achievement"
	}
	minWords := schema.TaskWordRequirements[req.TaskNumber]

	var taskContext string
	switch {
	case req.TaskNumber == 1 && req.Module == schema.ModuleAcademic:
		taskContext = `
Task 1 Context (Academic - Report Writing):
- The candidate should describe visual information (chart, graph, table, diagram, map, or process)
- Expected register: Formal, objective, impersonal language (avoid "I think", personal opinions)
- MUST include a clear overview/summary of main trends, differences, or stages
- Should select and report key features, make comparisons where relevant
- Should use appropriate data/figures to support descriptions
- Time allowed: 20 minutes
- Minimum 150 words required (penalty if under)

TASK 1 ACADEMIC SPECIFIC ASSESSMENT:
- Does the response have a clear overview?
- Are key features identified and illustrated?
- Is data accurately described?
- Is appropriate language for describing trends/processes used?
- Are comparisons made where relevant?`
	case req.TaskNumber == 1:
		taskContext = `
Task 1 Context (General Training - Letter Writing):
- The candidate should write a letter (formal, semi-formal, or informal)
- Must address ALL bullet points given in the task
- Register/tone should match the situation and recipient
- Should have appropriate opening and closing for letter type
- Time allowed: 20 minutes
- Minimum 150 words required (penalty if under)

TASK 1 GT SPECIFIC ASSESSMENT:
- Are all bullet points addressed adequately?
- Is the tone/register appropriate for the situation?
- Is the letter format correct (salutation, closing)?
- Is the purpose of the letter clear?`
	default:
		taskContext = `
Task 2 Context (Both Modules - Essay Writing):
- The candidate should write a formal academic essay
- Must present a clear position/thesis throughout
- Should develop ideas with relevant examples and explanations
- Essay types: Opinion, Discussion, Problem-Solution, Advantages-Disadvantages, or Two-part question
- Time allowed: 40 minutes
- Minimum 250 words required (penalty if under)

TASK 2 SPECIFIC ASSESSMENT:
- Is there a clear position/thesis statement?
- Are ideas fully developed with examples?
- Is the conclusion effective?
- Are both sides addressed (if discussion type)?
- Is the argument logical and convincing?`
	}

	originalPromptSection := ""
	if req.TaskPrompt != "" {
		originalPromptSection = fmt.Sprintf(`
ORIGINAL TASK PROMPT:
%s
`, req.TaskPrompt)
	}

	var criterionFocus, lexicalFocus string
	switch {
	case req.TaskNumber == 1 && req.Module == schema.ModuleAcademic:
		criterionFocus = "How well the candidate describes the visual data, includes an overview, and highlights key features"
		lexicalFocus = "data description language and academic vocabulary"
	case req.TaskNumber == 1:
		criterionFocus = "How well the candidate addresses all bullet points with appropriate tone/register"
		lexicalFocus = "appropriate register and tone"
	default:
		criterionFocus = "How well the candidate presents and develops their position with relevant, extended ideas"
		lexicalFocus = "topic-specific vocabulary and less common lexical items"
	}

	var band9, band8, band7, band6, band5 string
	if req.TaskNumber == 1 {
		band9 = "clear overview, accurate data, well-organized"
		band8 = "Covers all requirements; clear overview; well-organized with only occasional slips"
		band7 = "Covers requirements; clear overview; logical organization; some detail missing"
		band6 = "Addresses requirements; presents overview; some irrelevant detail; generally coherent"
		band5 = "Partially addresses task; may lack overview; limited detail"
	} else {
		band9 = "fully developed position with well-supported ideas"
		band8 = "Presents a well-developed response; some occasional lapses"
		band7 = "Clear position throughout; supports main ideas but may over-generalize"
		band6 = "Presents relevant position; conclusions may be unclear or repetitive"
		band5 = "Expresses a position but development is limited; may lack conclusions"
	}

	return fmt.Sprintf(`You are a certified IELTS examiner with extensive experience evaluating IELTS Writing tests.
Evaluate the following IELTS %[1]s Writing Task %[2]d response according to official IELTS assessment criteria.

%[3]s
%[4]s
CANDIDATE'S RESPONSE:
Word Count: %[5]d words (Minimum required: %[6]d words)

---
%[7]s
---

EVALUATION INSTRUCTIONS:
1. Score EACH of the 4 criteria INDEPENDENTLY on a 0-9 band scale
2. Calculate the overall band as the AVERAGE of all 4 criteria, rounded to the nearest 0.5
3. Provide SPECIFIC feedback that directly references the candidate's response with examples from their writing
4. Be objective and fair, following official IELTS band descriptors
5. Consider that a response under the minimum word count should have %[8]s penalized
6. For Task %[2]d, focus on the specific requirements mentioned above

ASSESSMENT CRITERIA FOR TASK %[2]d:
1. %[8]s (0-9): %[9]s
2. Coherence and Cohesion (0-9): Logical organization, paragraphing, and use of cohesive devices
3. Lexical Resource (0-9): Range and accuracy of vocabulary, including %[10]s
4. Grammatical Range and Accuracy (0-9): Variety and accuracy of grammatical structures

%[11]s BAND DESCRIPTORS (TASK %[2]d):
- Band 9: Fully satisfies all requirements; %[12]s
- Band 8: %[13]s
- Band 7: %[14]s
- Band 6: %[15]s
- Band 5: %[16]s
- Band 4 and below: Significantly fails to address task requirements

RETURN ONLY VALID JSON (no explanations, no markdown, no code blocks):
{
    "task_number": %[2]d,
    "overall_band": <float: average of 4 criteria rounded to nearest 0.5>,
    "task_achievement_or_response": {
        "band": <int: 0-9>,
        "feedback": "<string: specific feedback referencing the response, minimum 50 characters>"
    },
    "coherence_and_cohesion": {
        "band": <int: 0-9>,
        "feedback": "<string: specific feedback referencing the response, minimum 50 characters>"
    },
    "lexical_resource": {
        "band": <int: 0-9>,
        "feedback": "<string: specific feedback referencing the response, minimum 50 characters>"
    },
    "grammatical_range_and_accuracy": {
        "band": <int: 0-9>,
        "feedback": "<string: specific feedback referencing the response, minimum 50 characters>"
    },
    "strengths": "<string: 2-3 specific strengths observed in the response>",
    "weaknesses": "<string: 2-3 specific weaknesses observed in the response>",
    "improvement_suggestions": "<string: actionable suggestions for improvement>"
}

Evaluate the response NOW and return ONLY valid JSON:`,
		req.Module, req.TaskNumber, taskContext, originalPromptSection,
		wordCount, minWords, req.UserResponse, taskCriterion, criterionFocus,
		lexicalFocus, strings.ToUpper(taskCriterion), band9, band8, band7, band6, band5,
	)
}
