package dto

import (
	"encoding/json"
	"time"

	"github.com/anyexamai/backend/internal/schema"
)

type EvaluateWritingResponse struct {
	Success    bool                     `json:"success"`
	Evaluation *schema.EvaluationResult `json:"evaluation"`
	WordCount  int                      `json:"word_count"`
	TaskNumber int                      `json:"task_number"`
	Module     string                   `json:"module"`
}

// ArchivedTestResponse is the archive listing entry; payloads are elided.
type ArchivedTestResponse struct {
	ID             uint      `json:"id"`
	TestID         string    `json:"test_id"`
	TestType       string    `json:"test_type"`
	Module         string    `json:"module"`
	DifficultyBand string    `json:"difficulty_band"`
	CreatedAt      time.Time `json:"created_at"`
}

// ArchivedTestDetailResponse includes the full validated test payload.
type ArchivedTestDetailResponse struct {
	ArchivedTestResponse
	Payload json.RawMessage `json:"payload"`
}

type TopicHistoryResponse struct {
	Count  int64    `json:"count"`
	Topics []string `json:"topics"`
}

type ClearTopicsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type ErrorResponse struct {
	Error   string         `json:"error"`
	Kind    string         `json:"kind,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
