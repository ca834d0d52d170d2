package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AnswerValue is a scalar answer as emitted by the model. Gemini is loose
// about types here (strings, bare numbers, booleans), so it normalizes
// everything to a string on decode.
type AnswerValue string

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = AnswerValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*a = AnswerValue(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*a = AnswerValue(strconv.FormatBool(b))
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) == 0 {
			*a = ""
			return nil
		}
		return a.UnmarshalJSON(list[0])
	}
	return fmt.Errorf("answer value is neither scalar nor list: %s", data)
}

func (a AnswerValue) String() string { return string(a) }

// AnswerEntry is one answer-key entry: a primary answer plus accepted
// alternative spellings. Serialized as a bare scalar when there are no
// alternatives, a list otherwise, matching the wire shape consumers expect.
type AnswerEntry struct {
	Primary      string
	Alternatives []string
}

func (e AnswerEntry) MarshalJSON() ([]byte, error) {
	if len(e.Alternatives) == 0 {
		return json.Marshal(e.Primary)
	}
	all := append([]string{e.Primary}, e.Alternatives...)
	return json.Marshal(all)
}

func (e *AnswerEntry) UnmarshalJSON(data []byte) error {
	var list []AnswerValue
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) == 0 {
			return nil
		}
		e.Primary = string(list[0])
		for _, alt := range list[1:] {
			e.Alternatives = append(e.Alternatives, string(alt))
		}
		return nil
	}
	var v AnswerValue
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	e.Primary = string(v)
	return nil
}

// AnswerKey maps stringified question numbers to accepted answers. It is
// derived from per-question answers after validation, never trusted from the
// model directly.
type AnswerKey map[string]AnswerEntry
