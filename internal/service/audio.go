package service

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/anyexamai/backend/internal/schema"
	"github.com/anyexamai/backend/internal/tts"
	"github.com/rs/zerolog/log"
)

// speakerLabelRe matches an all-caps speaker label at the start of a line,
// e.g. "RECEPTIONIST:" or "DR. SMITH:".
var speakerLabelRe = regexp.MustCompile(`^[A-Z][A-Z\s.\-']+:`)

// splitTranscript splits a transcript into two halves at roughly the line
// midpoint, preferring a break at a speaker-label boundary so the second half
// starts with a speaker tag. Searches outward from the target line within a
// quarter-of-the-lines window; if either resulting half is empty the split
// falls back to the character midpoint.
func splitTranscript(transcript string) (string, string) {
	lines := strings.Split(strings.TrimSpace(transcript), "\n")
	target := len(lines) / 2

	best := target
search:
	for offset := 0; offset < len(lines)/4; offset++ {
		for _, candidate := range []int{target + offset, target - offset} {
			if candidate > 0 && candidate < len(lines) && speakerLabelRe.MatchString(lines[candidate]) {
				best = candidate
				break search
			}
		}
	}

	first := strings.TrimSpace(strings.Join(lines[:best], "\n"))
	second := strings.TrimSpace(strings.Join(lines[best:], "\n"))
	if first == "" || second == "" {
		mid := len(transcript) / 2
		first = strings.TrimSpace(transcript[:mid])
		second = strings.TrimSpace(transcript[mid:])
	}
	return first, second
}

// buildAudioBlocks maps the fixed 8-row block table onto the sections: each
// section's transcript is split into two halves (odd blocks take the first,
// even the second) and questions are assigned by question number from an
// index built across all sections, regardless of which section object the
// question physically lives in.
func buildAudioBlocks(sections []schema.ListeningSection) []schema.AudioBlock {
	questionsByNumber := make(map[int]schema.Question)
	for _, sec := range sections {
		for _, q := range sec.Questions {
			questionsByNumber[q.Number] = q
		}
	}

	halves := make(map[int][2]string)
	for _, sec := range sections {
		first, second := splitTranscript(sec.AudioTranscript)
		halves[sec.SectionNumber] = [2]string{first, second}
	}

	blocks := make([]schema.AudioBlock, 0, len(schema.AudioBlockRanges))
	for _, def := range schema.AudioBlockRanges {
		halfIdx := 0
		if def.Block%2 == 0 {
			halfIdx = 1
		}
		chunk := halves[def.Section][halfIdx]

		var blockQuestions []schema.Question
		for n := def.QStart; n <= def.QEnd; n++ {
			if q, ok := questionsByNumber[n]; ok {
				blockQuestions = append(blockQuestions, q)
			}
		}

		blocks = append(blocks, schema.AudioBlock{
			BlockNumber:     def.Block,
			SectionNumber:   def.Section,
			QuestionRange:   schema.QuestionRange{Min: def.QStart, Max: def.QEnd},
			Questions:       blockQuestions,
			TranscriptChunk: chunk,
			AudioAssets:     map[string]*schema.AudioAsset{},
		})
	}
	return blocks
}

// renderAudioBlocks synthesizes one MP3 per (block, accent) concurrently.
// Every outcome is recorded into that block's audio_assets entry; one
// asset's failure never aborts the others or the generation. Each goroutine
// writes to a distinct asset slot, so no locking is needed.
func renderAudioBlocks(ctx context.Context, synth tts.Synthesizer, blocks []schema.AudioBlock, testID, outputDir string) {
	var wg sync.WaitGroup
	rendered := 0

	for i := range blocks {
		block := &blocks[i]
		if block.TranscriptChunk == "" {
			log.Warn().Int("block", block.BlockNumber).Msg("Empty transcript chunk, skipping audio")
			continue
		}

		for _, vc := range schema.ListeningVoices {
			relPath := fmt.Sprintf("audio/listening/%s/block%d/%s.mp3", testID, block.BlockNumber, vc.Accent)
			asset := &schema.AudioAsset{
				Voice:  vc.Voice,
				Rate:   schema.VoiceRate,
				File:   relPath,
				Status: schema.AudioStatusPending,
			}
			block.AudioAssets[vc.Accent] = asset
			rendered++

			wg.Add(1)
			go func(chunk, voice, absPath string, asset *schema.AudioAsset) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						asset.Status = fmt.Sprintf("failed: %v", r)
					}
				}()
				if err := synth.Synthesize(ctx, chunk, voice, schema.VoiceRate, absPath); err != nil {
					log.Error().Err(err).Str("path", absPath).Msg("Audio render failed")
					asset.Status = fmt.Sprintf("failed: %v", err)
					return
				}
				asset.Status = schema.AudioStatusGenerated
			}(block.TranscriptChunk, vc.Voice, filepath.Join(outputDir, relPath), asset)
		}
	}

	log.Info().Int("assets", rendered).Msg("Rendering audio assets")
	wg.Wait()
}
