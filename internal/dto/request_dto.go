package dto

// EvaluateWritingRequest carries a candidate's writing submission for scoring.
// Module and Difficulty fall back to "Academic" and "7.0" when omitted; the
// service layer validates the final values and reports every violation at once.
type EvaluateWritingRequest struct {
	UserResponse string `json:"user_response" binding:"required"`
	TaskNumber   int    `json:"task_number" binding:"required"`
	Module       string `json:"module"`
	Difficulty   string `json:"difficulty"`
	TaskPrompt   string `json:"task_prompt"` // Original task prompt, improves feedback specificity when provided
}
