package service

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/anyexamai/backend/internal/apperr"
	"github.com/rs/zerolog/log"
)

const responsePreviewLen = 500

var (
	fenceOpenRe  = regexp.MustCompile("^```(?:json)?\\s*\n?")
	fenceCloseRe = regexp.MustCompile("\n?```\\s*$")
	codeBlockRe  = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	greedyObjRe  = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ExtractJSON recovers a JSON object from noisy model output using layered
// fallback strategies: strip fence markers and parse directly, brace-match the
// first object in the cleaned text, regex a fenced block out of the original
// text, then greedily take first '{' through last '}'. Deterministic: the same
// input always yields the same object or the same failure.
func ExtractJSON(raw string) (map[string]any, error) {
	cleaned := strings.TrimSpace(raw)

	// Strategy 1: drop markdown fence markers, then parse directly.
	if strings.HasPrefix(cleaned, "```") {
		cleaned = fenceOpenRe.ReplaceAllString(cleaned, "")
		cleaned = fenceCloseRe.ReplaceAllString(cleaned, "")
	}
	if obj, ok := tryParse(cleaned); ok {
		log.Debug().Msg("JSON extracted via direct parse")
		return obj, nil
	}

	// Strategy 2: brace-match the outermost object in the cleaned text.
	// Braces are counted regardless of string context; the later strategies
	// exist as the safety net for payloads with literal braces in text fields.
	if span, ok := matchBraces(cleaned); ok {
		if obj, ok := tryParse(span); ok {
			log.Debug().Msg("JSON extracted via brace matching")
			return obj, nil
		}
	}

	// Strategy 3: fenced code block anywhere in the original text.
	if m := codeBlockRe.FindStringSubmatch(raw); m != nil {
		if obj, ok := tryParse(m[1]); ok {
			log.Debug().Msg("JSON extracted via fenced block regex")
			return obj, nil
		}
	}

	// Strategy 4: greedy first '{' through last '}' in the original text.
	if m := greedyObjRe.FindString(raw); m != "" {
		if obj, ok := tryParse(m); ok {
			log.Debug().Msg("JSON extracted via greedy object regex")
			return obj, nil
		}
	}

	preview := raw
	if len(preview) > responsePreviewLen {
		preview = preview[:responsePreviewLen]
	}
	log.Error().Str("response_preview", preview).Msg("All JSON extraction strategies failed")
	return nil, apperr.New(apperr.KindJSONParse,
		"Could not extract valid JSON from API response",
		map[string]any{"response_preview": preview})
}

func tryParse(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func matchBraces(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
