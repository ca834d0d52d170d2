package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/anyexamai/backend/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialogueTranscript(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		speaker := "RECEPTIONIST"
		if i%2 == 1 {
			speaker = "STUDENT"
		}
		fmt.Fprintf(&b, "%s: This is line %d of the conversation about the booking.\n", speaker, i+1)
	}
	return b.String()
}

func TestSplitTranscriptAtSpeakerBoundary(t *testing.T) {
	transcript := dialogueTranscript(20)

	first, second := splitTranscript(transcript)
	require.NotEmpty(t, first)
	require.NotEmpty(t, second)
	assert.Regexp(t, `^[A-Z]`, second)
	assert.True(t, strings.HasPrefix(second, "RECEPTIONIST:") || strings.HasPrefix(second, "STUDENT:"))

	// Every line survives the split.
	joined := first + "\n" + second
	for i := 1; i <= 20; i++ {
		assert.Contains(t, joined, fmt.Sprintf("line %d of", i))
	}
}

func TestSplitTranscriptWithoutSpeakerLabels(t *testing.T) {
	transcript := "The lecture today covers glaciation.\nIce sheets advance and retreat.\nMoraines mark their furthest extent.\nCore samples record the cycles."

	first, second := splitTranscript(transcript)
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}

func TestSplitTranscriptSingleLine(t *testing.T) {
	transcript := "A single long monologue with no line breaks at all, just one continuous stream of speech."

	first, second := splitTranscript(transcript)
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
}

func makeListeningSections() []schema.ListeningSection {
	sections := make([]schema.ListeningSection, 0, 4)
	for s := 1; s <= 4; s++ {
		questions := make([]schema.Question, 0, 10)
		for i := 0; i < 10; i++ {
			n := (s-1)*10 + i + 1
			questions = append(questions, schema.Question{
				Number: n,
				Kind:   schema.KindShortAnswer,
				Answer: schema.AnswerValue(fmt.Sprintf("answer%d", n)),
				Detail: schema.ShortAnswerDetail{QuestionText: fmt.Sprintf("Question %d?", n)},
			})
		}
		sections = append(sections, schema.ListeningSection{
			SectionNumber:   s,
			SectionType:     "social_dialogue",
			AudioTranscript: dialogueTranscript(24),
			Questions:       questions,
		})
	}
	return sections
}

func TestBuildAudioBlocksPartitionsQuestions(t *testing.T) {
	blocks := buildAudioBlocks(makeListeningSections())
	require.Len(t, blocks, schema.ListeningAudioBlockCount)

	seen := map[int]int{}
	for i, block := range blocks {
		def := schema.AudioBlockRanges[i]
		assert.Equal(t, def.Block, block.BlockNumber)
		assert.Equal(t, def.Section, block.SectionNumber)
		assert.Equal(t, def.QStart, block.QuestionRange.Min)
		assert.Equal(t, def.QEnd, block.QuestionRange.Max)
		assert.NotEmpty(t, block.TranscriptChunk)

		for _, q := range block.Questions {
			seen[q.Number]++
			assert.GreaterOrEqual(t, q.Number, def.QStart)
			assert.LessOrEqual(t, q.Number, def.QEnd)
		}
	}

	// Questions 1-40 each land in exactly one block.
	require.Len(t, seen, 40)
	for n := 1; n <= 40; n++ {
		assert.Equal(t, 1, seen[n], "question %d", n)
	}
}

func TestBuildAudioBlocksHalvesAlternate(t *testing.T) {
	blocks := buildAudioBlocks(makeListeningSections())

	// Blocks come in pairs per section: odd takes the first transcript half,
	// even the second.
	for i := 0; i < len(blocks); i += 2 {
		odd, even := blocks[i], blocks[i+1]
		assert.Equal(t, odd.SectionNumber, even.SectionNumber)
		assert.NotEqual(t, odd.TranscriptChunk, even.TranscriptChunk)
	}
}

func TestRenderAudioBlocksAllAccents(t *testing.T) {
	blocks := buildAudioBlocks(makeListeningSections())
	synth := &fakeSynth{}

	renderAudioBlocks(context.Background(), synth, blocks, "abc12345", "/tmp/audio-test")

	assert.Equal(t, schema.ListeningAudioBlockCount*len(schema.ListeningVoices), synth.callCount())
	for _, block := range blocks {
		require.Len(t, block.AudioAssets, len(schema.ListeningVoices))
		for accent, asset := range block.AudioAssets {
			assert.Equal(t, schema.AudioStatusGenerated, asset.Status)
			assert.Equal(t, schema.VoiceRate, asset.Rate)
			assert.Contains(t, asset.File, fmt.Sprintf("block%d", block.BlockNumber))
			assert.Contains(t, asset.File, accent+".mp3")
			assert.Contains(t, asset.File, "abc12345")
		}
	}
}

func TestRenderAudioBlocksFailureIsolated(t *testing.T) {
	blocks := buildAudioBlocks(makeListeningSections())
	synth := &fakeSynth{failFor: map[string]error{
		"en-AU-NatashaNeural": errors.New("connection reset"),
	}}

	renderAudioBlocks(context.Background(), synth, blocks, "abc12345", "/tmp/audio-test")

	for _, block := range blocks {
		for accent, asset := range block.AudioAssets {
			if accent == "au" {
				assert.Equal(t, "failed: connection reset", asset.Status)
			} else {
				assert.Equal(t, schema.AudioStatusGenerated, asset.Status)
			}
		}
	}
}

func TestRenderAudioBlocksSkipsEmptyChunks(t *testing.T) {
	blocks := []schema.AudioBlock{{
		BlockNumber:   1,
		SectionNumber: 1,
		AudioAssets:   map[string]*schema.AudioAsset{},
	}}
	synth := &fakeSynth{}

	renderAudioBlocks(context.Background(), synth, blocks, "abc12345", "/tmp/audio-test")

	assert.Zero(t, synth.callCount())
	assert.Empty(t, blocks[0].AudioAssets)
}
