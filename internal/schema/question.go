package schema

import (
	"encoding/json"
	"fmt"
)

// QuestionKind enumerates every question variant the generators produce.
type QuestionKind string

const (
	// Reading kinds (listening reuses multiple_choice and sentence_completion).
	KindMultipleChoice         QuestionKind = "multiple_choice"
	KindIdentifyingInformation QuestionKind = "identifying_information"
	KindIdentifyingWriterView  QuestionKind = "identifying_writer_view"
	KindShortAnswer            QuestionKind = "short_answer"
	KindSentenceCompletion     QuestionKind = "sentence_completion"
	KindSummaryCompletion      QuestionKind = "summary_completion"
	KindMatchingHeadings       QuestionKind = "matching_headings"
	KindMatchingFeatures       QuestionKind = "matching_features"

	// Listening-only kinds.
	KindFormCompletion  QuestionKind = "form_completion"
	KindNoteCompletion  QuestionKind = "note_completion"
	KindMatching        QuestionKind = "matching"
	KindTableCompletion QuestionKind = "table_completion"
)

// QuestionDetail is the closed set of per-kind payloads. Exactly one concrete
// type exists per QuestionKind; consumers switch exhaustively instead of
// probing for keys.
type QuestionDetail interface {
	questionDetail()
}

type MultipleChoiceDetail struct {
	QuestionText string
	Options      OptionList
	SelectCount  int
}

// StatementDetail backs identifying_information (True/False/Not Given) and
// identifying_writer_view (Yes/No/Not Given).
type StatementDetail struct {
	Statement string
}

type ShortAnswerDetail struct {
	QuestionText string
}

type SentenceCompletionDetail struct {
	IncompleteSentence string
	Options            OptionList
}

type SummaryCompletionDetail struct {
	SummaryText string
}

type MatchingHeadingsDetail struct {
	PassageReference string
	HeadingOptions   OptionList
}

type MatchingFeaturesDetail struct {
	Statement      string
	FeatureOptions OptionList
}

type FormCompletionDetail struct {
	FormContext string
	Subheading  string
	FormField   string
}

type NoteCompletionDetail struct {
	NoteContext string
	Subheading  string
	NoteTopic   string
}

type MatchingDetail struct {
	ItemToMatch  string
	ItemsToMatch []string
	Options      OptionList
	MatchingType string
}

type TableCompletionDetail struct {
	TableTitle   string
	TableContext string
	CellLocation string
}

// GenericDetail captures questions whose kind is not in the closed set, so
// that validation (not decoding) gets to report them.
type GenericDetail struct {
	Fields map[string]any
}

func (MultipleChoiceDetail) questionDetail()     {}
func (StatementDetail) questionDetail()          {}
func (ShortAnswerDetail) questionDetail()        {}
func (SentenceCompletionDetail) questionDetail() {}
func (SummaryCompletionDetail) questionDetail()  {}
func (MatchingHeadingsDetail) questionDetail()   {}
func (MatchingFeaturesDetail) questionDetail()   {}
func (FormCompletionDetail) questionDetail()     {}
func (NoteCompletionDetail) questionDetail()     {}
func (MatchingDetail) questionDetail()           {}
func (TableCompletionDetail) questionDetail()    {}
func (GenericDetail) questionDetail()            {}

// Question is one exam question: the common envelope plus a kind-specific
// detail payload. The wire format stays flat (kind-specific fields alongside
// the envelope), matching what the model emits and the frontend reads.
type Question struct {
	Number             int
	Kind               QuestionKind
	Answer             AnswerValue
	AlternativeAnswers []string
	Explanation        string
	MaxWordCount       int
	AnswerConstraints  map[string]any
	Detail             QuestionDetail
}

// questionWire lists every flat field any kind can carry.
type questionWire struct {
	Number             flexInt        `json:"question_number"`
	Kind               QuestionKind   `json:"type"`
	Answer             AnswerValue    `json:"answer"`
	AlternativeAnswers []string       `json:"alternative_answers,omitempty"`
	Explanation        string         `json:"explanation,omitempty"`
	MaxWordCount       flexInt        `json:"max_word_count,omitempty"`
	AnswerConstraints  map[string]any `json:"answer_constraints,omitempty"`

	QuestionText       string     `json:"question_text,omitempty"`
	Statement          string     `json:"statement,omitempty"`
	IncompleteSentence string     `json:"incomplete_sentence,omitempty"`
	SummaryText        string     `json:"summary_text,omitempty"`
	PassageReference   string     `json:"passage_reference,omitempty"`
	Options            OptionList `json:"options,omitempty"`
	HeadingOptions     OptionList `json:"heading_options,omitempty"`
	FeatureOptions     OptionList `json:"feature_options,omitempty"`
	SelectCount        flexInt    `json:"select_count,omitempty"`

	FormContext  string   `json:"form_context,omitempty"`
	NoteContext  string   `json:"note_context,omitempty"`
	Subheading   string   `json:"subheading,omitempty"`
	FormField    string   `json:"form_field,omitempty"`
	NoteTopic    string   `json:"note_topic,omitempty"`
	ItemToMatch  string   `json:"item_to_match,omitempty"`
	ItemsToMatch []string `json:"items_to_match,omitempty"`
	MatchingType string   `json:"matching_type,omitempty"`
	TableTitle   string   `json:"table_title,omitempty"`
	TableContext string   `json:"table_context,omitempty"`
	CellLocation string   `json:"cell_location,omitempty"`
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode question: %w", err)
	}

	q.Number = int(w.Number)
	q.Kind = w.Kind
	q.Answer = w.Answer
	q.AlternativeAnswers = w.AlternativeAnswers
	q.Explanation = w.Explanation
	q.MaxWordCount = int(w.MaxWordCount)
	q.AnswerConstraints = w.AnswerConstraints

	switch w.Kind {
	case KindMultipleChoice:
		q.Detail = MultipleChoiceDetail{QuestionText: w.QuestionText, Options: w.Options, SelectCount: int(w.SelectCount)}
	case KindIdentifyingInformation, KindIdentifyingWriterView:
		q.Detail = StatementDetail{Statement: w.Statement}
	case KindShortAnswer:
		q.Detail = ShortAnswerDetail{QuestionText: w.QuestionText}
	case KindSentenceCompletion:
		q.Detail = SentenceCompletionDetail{IncompleteSentence: w.IncompleteSentence, Options: w.Options}
	case KindSummaryCompletion:
		q.Detail = SummaryCompletionDetail{SummaryText: w.SummaryText}
	case KindMatchingHeadings:
		q.Detail = MatchingHeadingsDetail{PassageReference: w.PassageReference, HeadingOptions: w.HeadingOptions}
	case KindMatchingFeatures:
		q.Detail = MatchingFeaturesDetail{Statement: w.Statement, FeatureOptions: w.FeatureOptions}
	case KindFormCompletion:
		q.Detail = FormCompletionDetail{FormContext: w.FormContext, Subheading: w.Subheading, FormField: w.FormField}
	case KindNoteCompletion:
		q.Detail = NoteCompletionDetail{NoteContext: w.NoteContext, Subheading: w.Subheading, NoteTopic: w.NoteTopic}
	case KindMatching:
		q.Detail = MatchingDetail{ItemToMatch: w.ItemToMatch, ItemsToMatch: w.ItemsToMatch, Options: w.Options, MatchingType: w.MatchingType}
	case KindTableCompletion:
		q.Detail = TableCompletionDetail{TableTitle: w.TableTitle, TableContext: w.TableContext, CellLocation: w.CellLocation}
	default:
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("decode question fields: %w", err)
		}
		q.Detail = GenericDetail{Fields: fields}
	}
	return nil
}

func (q Question) MarshalJSON() ([]byte, error) {
	if g, ok := q.Detail.(GenericDetail); ok {
		return json.Marshal(g.Fields)
	}

	w := questionWire{
		Number:             flexInt(q.Number),
		Kind:               q.Kind,
		Answer:             q.Answer,
		AlternativeAnswers: q.AlternativeAnswers,
		Explanation:        q.Explanation,
		MaxWordCount:       flexInt(q.MaxWordCount),
		AnswerConstraints:  q.AnswerConstraints,
	}

	switch d := q.Detail.(type) {
	case MultipleChoiceDetail:
		w.QuestionText, w.Options, w.SelectCount = d.QuestionText, d.Options, flexInt(d.SelectCount)
	case StatementDetail:
		w.Statement = d.Statement
	case ShortAnswerDetail:
		w.QuestionText = d.QuestionText
	case SentenceCompletionDetail:
		w.IncompleteSentence, w.Options = d.IncompleteSentence, d.Options
	case SummaryCompletionDetail:
		w.SummaryText = d.SummaryText
	case MatchingHeadingsDetail:
		w.PassageReference, w.HeadingOptions = d.PassageReference, d.HeadingOptions
	case MatchingFeaturesDetail:
		w.Statement, w.FeatureOptions = d.Statement, d.FeatureOptions
	case FormCompletionDetail:
		w.FormContext, w.Subheading, w.FormField = d.FormContext, d.Subheading, d.FormField
	case NoteCompletionDetail:
		w.NoteContext, w.Subheading, w.NoteTopic = d.NoteContext, d.Subheading, d.NoteTopic
	case MatchingDetail:
		w.ItemToMatch, w.ItemsToMatch, w.Options, w.MatchingType = d.ItemToMatch, d.ItemsToMatch, d.Options, d.MatchingType
	case TableCompletionDetail:
		w.TableTitle, w.TableContext, w.CellLocation = d.TableTitle, d.TableContext, d.CellLocation
	}

	return json.Marshal(w)
}

// flexInt tolerates the model emitting numbers as floats or quoted strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(int(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	var parsed float64
	if _, err := fmt.Sscanf(s, "%f", &parsed); err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(int(parsed))
	return nil
}
