package service

import (
	"context"
	"fmt"
	"time"

	"github.com/anyexamai/backend/internal/apperr"
	"github.com/rs/zerolog/log"
)

// engineState names one step of the bounded generation loop.
type engineState string

const (
	stateBuilding       engineState = "building"
	stateCalling        engineState = "calling"
	stateExtracting     engineState = "extracting"
	statePostProcessing engineState = "post_processing"
	stateValidating     engineState = "validating"
	stateAccepted       engineState = "accepted"
	stateRetryPending   engineState = "retry_pending"
	stateExhausted      engineState = "exhausted"
)

const (
	maxAttempts = 3
	retryDelay  = 2 * time.Second
)

// generationSteps supplies the per-test-type behavior the engine drives.
// BuildPrompt runs fresh on every attempt so upstream state changes (a new
// timestamp, a new test id) are reflected in retries. PostProcess and
// Validate both work on the raw extracted object; decoding into typed
// structs happens after the engine accepts.
type generationSteps struct {
	Name        string
	BuildPrompt func() string
	PostProcess func(raw map[string]any) map[string]any
	Validate    func(raw map[string]any) error
}

// generationEngine drives build → call → extract → post-process → validate
// with bounded retries and a fixed delay between attempts.
type generationEngine struct {
	client ModelClient
	sleep  func(time.Duration)
}

func newGenerationEngine(client ModelClient) *generationEngine {
	return &generationEngine{client: client, sleep: time.Sleep}
}

// Run executes up to maxAttempts attempts. On exhaustion it raises the
// last-seen error; if that was a validation failure it is wrapped with the
// aggregated per-attempt error list for diagnosability.
func (e *generationEngine) Run(ctx context.Context, steps generationSteps) (map[string]any, error) {
	var (
		lastErr   error
		allErrors []string
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		log.Info().Str("pipeline", steps.Name).
			Int("attempt", attempt).Int("max_attempts", maxAttempts).
			Msg("Starting generation attempt")

		raw, err := e.runAttempt(ctx, steps)
		if err == nil {
			log.Info().Str("pipeline", steps.Name).Int("attempt", attempt).
				Msg("Generation accepted")
			return raw, nil
		}

		lastErr = err
		if appErr, ok := apperr.As(err); ok && appErr.Kind == apperr.KindValidation {
			allErrors = append(allErrors, fmt.Sprintf("Attempt %d: %v", attempt, appErr.Violations()))
			log.Warn().Str("pipeline", steps.Name).Int("attempt", attempt).
				Strs("errors", appErr.Violations()).Msg("Validation failed")
		} else {
			allErrors = append(allErrors, fmt.Sprintf("Attempt %d: %v", attempt, err))
			log.Error().Err(err).Str("pipeline", steps.Name).Int("attempt", attempt).
				Msg("Generation attempt failed")
		}

		if attempt < maxAttempts {
			log.Info().Str("pipeline", steps.Name).Dur("delay", retryDelay).
				Str("state", string(stateRetryPending)).Msg("Retrying")
			e.sleep(retryDelay)
		}
	}

	log.Error().Str("pipeline", steps.Name).Str("state", string(stateExhausted)).
		Strs("all_errors", allErrors).Msg("All generation attempts failed")

	if appErr, ok := apperr.As(lastErr); ok && appErr.Kind == apperr.KindValidation {
		return nil, apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("Schema validation failed after %d attempts", maxAttempts),
			map[string]any{
				"all_errors":  allErrors,
				"last_errors": appErr.Violations(),
				"errors":      appErr.Violations(),
			},
			lastErr)
	}
	return nil, lastErr
}

// runAttempt walks one attempt through the named states and returns either
// the accepted raw object or the first error encountered.
func (e *generationEngine) runAttempt(ctx context.Context, steps generationSteps) (map[string]any, error) {
	var (
		state    = stateBuilding
		prompt   string
		response string
		raw      map[string]any
	)

	for {
		switch state {
		case stateBuilding:
			prompt = steps.BuildPrompt()
			state = stateCalling

		case stateCalling:
			text, err := e.client.GenerateContent(ctx, prompt)
			if err != nil {
				return nil, err
			}
			response = text
			state = stateExtracting

		case stateExtracting:
			obj, err := ExtractJSON(response)
			if err != nil {
				return nil, err
			}
			raw = obj
			state = statePostProcessing

		case statePostProcessing:
			if steps.PostProcess != nil {
				raw = steps.PostProcess(raw)
			}
			state = stateValidating

		case stateValidating:
			if err := steps.Validate(raw); err != nil {
				return nil, err
			}
			state = stateAccepted

		case stateAccepted:
			return raw, nil
		}
	}
}
