package schema

// ListeningSchemaVersion is the structural-contract tag for listening tests.
const ListeningSchemaVersion = "2.1"

const (
	ListeningSectionCount       = 4
	ListeningQuestionsPerSect   = 10
	ListeningTotalQuestions     = 40
	ListeningAudioBlockCount    = 8
	MinTranscriptLength         = 500
	ListeningAudioDurationMin   = 30
	DeliveryFormatComputerBased = "computer-based"
)

// VoiceConfig binds an accent name to a neural voice id.
type VoiceConfig struct {
	Accent string
	Voice  string
}

// ListeningVoices are the accent variants rendered for every audio block.
// Ordered so rendering and tests are deterministic.
var ListeningVoices = []VoiceConfig{
	{Accent: "uk", Voice: "en-GB-SoniaNeural"},
	{Accent: "us", Voice: "en-US-JennyNeural"},
	{Accent: "au", Voice: "en-AU-NatashaNeural"},
	{Accent: "nz", Voice: "en-NZ-MollyNeural"},
	{Accent: "ca", Voice: "en-CA-ClaraNeural"},
}

// VoiceRate is the shared speech-rate adjustment for all voices.
const VoiceRate = "-5%"

// BlockRange fixes which section and question range an audio block covers.
type BlockRange struct {
	Block   int
	Section int
	QStart  int
	QEnd    int
}

// AudioBlockRanges is the fixed computer-based delivery table: 8 blocks, 2
// per section, partitioning questions 1-40 with no gaps or overlaps.
var AudioBlockRanges = [8]BlockRange{
	{Block: 1, Section: 1, QStart: 1, QEnd: 4},
	{Block: 2, Section: 1, QStart: 5, QEnd: 10},
	{Block: 3, Section: 2, QStart: 11, QEnd: 16},
	{Block: 4, Section: 2, QStart: 17, QEnd: 20},
	{Block: 5, Section: 3, QStart: 21, QEnd: 24},
	{Block: 6, Section: 3, QStart: 25, QEnd: 30},
	{Block: 7, Section: 4, QStart: 31, QEnd: 35},
	{Block: 8, Section: 4, QStart: 36, QEnd: 40},
}

type QuestionRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type ListeningTest struct {
	TestID               string             `json:"test_id"`
	TestType             string             `json:"test_type"`
	TotalQuestions       int                `json:"total_questions"`
	AudioDurationMinutes int                `json:"audio_duration_minutes"`
	TransferTimeMinutes  int                `json:"transfer_time_minutes"`
	TestMetadata         ListeningMetadata  `json:"test_metadata"`
	PlaybackRules        map[string]any     `json:"playback_rules"`
	TestFlow             map[string]any     `json:"test_flow"`
	Sections             []ListeningSection `json:"sections"`
	AudioBlocks          []AudioBlock       `json:"audio_blocks"`
	AnswerKey            AnswerKey          `json:"answer_key"`
}

type ListeningMetadata struct {
	SchemaVersion        string         `json:"schema_version"`
	GeneratedAt          string         `json:"generated_at"`
	DifficultyBand       string         `json:"difficulty_band"`
	DeliveryFormat       string         `json:"delivery_format"`
	TestSource           string         `json:"test_source,omitempty"`
	AudioCharacteristics map[string]any `json:"audio_characteristics,omitempty"`
}

type SectionContext struct {
	Setting     string `json:"setting"`
	Purpose     string `json:"purpose"`
	Description string `json:"description"`
}

type Speaker struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Accent string `json:"accent"`
}

type Speakers struct {
	Count   int       `json:"count"`
	Details []Speaker `json:"details"`
}

type ListeningSection struct {
	SectionNumber        int             `json:"section_number"`
	SectionType          string          `json:"section_type"`
	SectionInstructions  string          `json:"section_instructions"`
	Context              *SectionContext `json:"context"`
	Speakers             *Speakers       `json:"speakers"`
	DifficultyBand       string          `json:"difficulty_band"`
	AudioDurationSeconds int             `json:"audio_duration_seconds"`
	AudioTranscript      string          `json:"audio_transcript"`
	SectionQuestionRange *QuestionRange  `json:"section_question_range"`
	Questions            []Question      `json:"questions"`
	SkillsAssessed       []string        `json:"skills_assessed,omitempty"`
}

const (
	AudioStatusPending   = "pending"
	AudioStatusGenerated = "generated"
)

// AudioAsset is one rendered (block, accent) MP3. Status is "pending",
// "generated", or "failed: <reason>".
type AudioAsset struct {
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	File   string `json:"file_path"`
	Status string `json:"status"`
}

// AudioBlock is one of the 8 fixed transcript+question segments for
// computer-based delivery. Owned exclusively by its parent test.
type AudioBlock struct {
	BlockNumber     int                    `json:"block_number"`
	SectionNumber   int                    `json:"section_number"`
	QuestionRange   QuestionRange          `json:"question_range"`
	Questions       []Question             `json:"questions"`
	TranscriptChunk string                 `json:"transcript_chunk"`
	AudioAssets     map[string]*AudioAsset `json:"audio_assets"`
}
