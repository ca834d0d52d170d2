// Package tts converts text to speech. The concrete implementation speaks the
// Edge read-aloud websocket protocol, which exposes the multi-accent neural
// voices used for listening-test audio without an API key.
package tts

import "context"

// Synthesizer renders text with a named voice to an audio file at path,
// creating parent directories as needed. Implementations must be safe for
// concurrent use: the audio renderer fans out one call per (block, accent).
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, rate, outputPath string) error
}
