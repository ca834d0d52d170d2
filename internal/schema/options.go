package schema

import "encoding/json"

// OptionItem is a single choice in a multiple-choice or matching question.
// Reading prompts produce plain strings ("A. First option"); listening
// prompts produce {label, text} objects. Both decode into OptionItem and
// re-encode in their original form.
type OptionItem struct {
	Label string
	Text  string

	fromString bool
}

func (o OptionItem) MarshalJSON() ([]byte, error) {
	if o.fromString {
		return json.Marshal(o.Text)
	}
	return json.Marshal(struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	}{o.Label, o.Text})
}

func (o *OptionItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Text = s
		o.fromString = true
		// Labels like "A." or "iii." prefix the text; keep the label when it
		// is short enough to be one.
		for i, r := range s {
			if r == '.' || r == ')' {
				if i > 0 && i <= 4 {
					o.Label = s[:i]
				}
				break
			}
		}
		return nil
	}
	var obj struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	o.Label = obj.Label
	o.Text = obj.Text
	return nil
}

// OptionList is an ordered list of options.
type OptionList []OptionItem
