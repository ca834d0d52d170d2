package schema

// ReadingSchemaVersion is the structural-contract tag for reading tests,
// checked exactly.
const ReadingSchemaVersion = "2.0"

// Passage boundary ranges: questions 1-13 belong to passage 1, 14-26 to
// passage 2, 27-40 to passage 3.
var ReadingPassageRanges = [3]QuestionRange{
	{Min: 1, Max: 13},
	{Min: 14, Max: 26},
	{Min: 27, Max: 40},
}

const (
	ReadingTotalQuestions = 40
	ReadingPassageCount   = 3
	ReadingDurationMin    = 60

	// The acceptance gate for generated passage length. The prompt asks for
	// 750-950 words; the validator deliberately accepts a wider band so a
	// slightly short or long passage does not burn a retry.
	PassageMinWords = 500
	PassageMaxWords = 1200
)

type ReadingTest struct {
	TestType             string          `json:"test_type"`
	TotalQuestions       int             `json:"total_questions"`
	TotalDurationMinutes int             `json:"total_duration_minutes"`
	TestMetadata         ReadingMetadata `json:"test_metadata"`
	Passages             []Passage       `json:"passages"`
	AnswerKey            AnswerKey       `json:"answer_key"`
}

type ReadingMetadata struct {
	SchemaVersion  string   `json:"schema_version"`
	GeneratedAt    string   `json:"generated_at"`
	DifficultyBand string   `json:"difficulty_band"`
	TestSource     string   `json:"test_source,omitempty"`
	PassageSources []string `json:"passage_sources,omitempty"`
	Topics         []string `json:"topics"`
}

type Passage struct {
	PassageNumber          int        `json:"passage_number"`
	Heading                string     `json:"heading"`
	Text                   string     `json:"text"`
	WordCount              int        `json:"word_count"`
	Topic                  string     `json:"topic,omitempty"`
	DifficultyBand         string     `json:"difficulty_band,omitempty"`
	LexicalRangeDescriptor string     `json:"lexical_range_descriptor,omitempty"`
	GrammaticalComplexity  string     `json:"grammatical_complexity,omitempty"`
	Questions              []Question `json:"questions"`
}
