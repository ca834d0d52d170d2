package schema

// EvaluationMinimumWords is the floor below which a submission is rejected
// before any model call.
const EvaluationMinimumWords = 50

// TaskWordRequirements are the official per-task minimum word counts,
// referenced in the evaluation prompt.
var TaskWordRequirements = map[int]int{1: Task1MinimumWords, 2: Task2MinimumWords}

// CriterionScore is one assessed criterion: an integer band and feedback that
// must reference the candidate's response.
type CriterionScore struct {
	Band     int    `json:"band"`
	Feedback string `json:"feedback"`
}

// EvaluationResult is the scored outcome of a writing evaluation. Immutable
// once returned; OverallBand is always a multiple of 0.5 (off-grid model
// values are rounded, not rejected).
type EvaluationResult struct {
	TaskNumber                  int            `json:"task_number"`
	OverallBand                 float64        `json:"overall_band"`
	TaskAchievementOrResponse   CriterionScore `json:"task_achievement_or_response"`
	CoherenceAndCohesion        CriterionScore `json:"coherence_and_cohesion"`
	LexicalResource             CriterionScore `json:"lexical_resource"`
	GrammaticalRangeAndAccuracy CriterionScore `json:"grammatical_range_and_accuracy"`
	Strengths                   string         `json:"strengths"`
	Weaknesses                  string         `json:"weaknesses"`
	ImprovementSuggestions      string         `json:"improvement_suggestions"`
}

// Criteria returns the four criterion scores keyed by their wire names, in
// assessment order.
func (e *EvaluationResult) Criteria() []struct {
	Name  string
	Score CriterionScore
} {
	return []struct {
		Name  string
		Score CriterionScore
	}{
		{"task_achievement_or_response", e.TaskAchievementOrResponse},
		{"coherence_and_cohesion", e.CoherenceAndCohesion},
		{"lexical_resource", e.LexicalResource},
		{"grammatical_range_and_accuracy", e.GrammaticalRangeAndAccuracy},
	}
}
