package service

import (
	"context"
	"fmt"

	"github.com/anyexamai/backend/config"
	"github.com/anyexamai/backend/internal/apperr"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const (
	geminiModelName       = "gemini-2.5-flash"
	geminiTemperature     = 0.7
	geminiMaxOutputTokens = 65536
	promptPreviewLen      = 200
)

// ModelClient is the single contract the pipelines have with the generative
// model: prompt in, text out. Failures surface as KindModel errors carrying a
// truncated prompt preview.
type ModelClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type geminiModelClient struct {
	model *genai.GenerativeModel
}

// NewGeminiModelClient builds the model client once at startup. A missing API
// key is a configuration error and aborts initialization; there is no degraded
// nil-client mode.
func NewGeminiModelClient(cfg *config.Config) (ModelClient, error) {
	if cfg.GeminiApiKey == "" {
		return nil, apperr.New(apperr.KindConfiguration,
			"GEMINI_API_KEY is not set. Please set it in your .env file.", nil)
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration,
			"failed to initialize Gemini client", nil, err)
	}

	model := client.GenerativeModel(geminiModelName)
	model.SetTemperature(geminiTemperature)
	model.SetMaxOutputTokens(geminiMaxOutputTokens)

	log.Info().Str("model", geminiModelName).Msg("Gemini client configured")
	return &geminiModelClient{model: model}, nil
}

func (c *geminiModelClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	log.Debug().Int("prompt_length", len(prompt)).Msg("Calling Gemini API")

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Msg("Gemini API call failed")
		return "", apperr.Model(err, truncate(prompt, promptPreviewLen))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperr.Model(fmt.Errorf("model returned no candidates"), truncate(prompt, promptPreviewLen))
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", apperr.Model(fmt.Errorf("model returned no text content"), truncate(prompt, promptPreviewLen))
	}

	log.Debug().Int("response_length", len(text)).Msg("Gemini API response received")
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
