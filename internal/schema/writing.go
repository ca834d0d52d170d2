package schema

// WritingSchemaVersion is the structural-contract tag for writing tests.
const WritingSchemaVersion = "3.0"

const (
	WritingTaskCount   = 2
	Task1MinimumWords  = 150
	Task2MinimumWords  = 250
	Task1Weight        = "33%"
	Task2Weight        = "67%"
	WritingDurationMin = 60

	// Sample responses shorter than this are flagged as warnings.
	SampleResponseMinChars = 100
)

type WritingTest struct {
	TestName             string          `json:"test_name"`
	Module               string          `json:"module"`
	TotalTimeMinutes     int             `json:"total_time_minutes"`
	RecommendedTimeSplit *TimeSplit      `json:"recommended_time_split,omitempty"`
	TestMetadata         WritingMetadata `json:"test_metadata"`
	Tasks                []WritingTask   `json:"tasks"`
	Assessment           Assessment      `json:"assessment"`
}

type TimeSplit struct {
	Task1Minutes int `json:"task_1_minutes"`
	Task2Minutes int `json:"task_2_minutes"`
}

type WritingMetadata struct {
	SchemaVersion  string `json:"schema_version"`
	GeneratedAt    string `json:"generated_at"`
	DifficultyBand string `json:"difficulty_band"`
	TestSource     string `json:"test_source,omitempty"`
}

// WritingTask keeps the prompt subtree loosely typed: its inner shape
// (visual_data / letter_context / essay_context) varies by module and task
// type and is consumed opaquely by the frontend.
type WritingTask struct {
	TaskNumber           int              `json:"task_number"`
	TaskType             string           `json:"task_type"`
	ModuleSpecific       string           `json:"module_specific,omitempty"`
	MinimumWordCount     int              `json:"minimum_word_count"`
	RecommendedWordCount int              `json:"recommended_word_count,omitempty"`
	AssessmentWeight     string           `json:"assessment_weight"`
	Instructions         string           `json:"instructions"`
	TaskContext          string           `json:"task_context,omitempty"`
	Prompt               map[string]any   `json:"prompt"`
	SampleResponses      []SampleResponse `json:"sample_responses"`
}

type SampleResponse struct {
	BandScore           float64           `json:"band_score"`
	WordCount           int               `json:"word_count"`
	ResponseText        string            `json:"response_text"`
	ExaminerCommentary  string            `json:"examiner_commentary,omitempty"`
	AssessmentBreakdown map[string]string `json:"assessment_breakdown,omitempty"`
}

type Assessment struct {
	Criteria           []string         `json:"criteria"`
	ScoringMethodology map[string]any   `json:"scoring_methodology"`
	BandScale          []map[string]any `json:"band_scale"`
	DetailedRubrics    map[string]any   `json:"detailed_rubrics,omitempty"`
}
