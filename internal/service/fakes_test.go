package service

import (
	"context"
	"sync"

	"github.com/anyexamai/backend/internal/model"
)

// fakeModelClient replays canned responses. When attempts outnumber
// responses the last one repeats.
type fakeModelClient struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeModelClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

type fakeTopicRepo struct {
	topics    []string
	recentErr error
	added     [][]string
	cleared   bool
}

func (f *fakeTopicRepo) Recent(limit int) ([]string, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if limit > 0 && len(f.topics) > limit {
		return f.topics[len(f.topics)-limit:], nil
	}
	return f.topics, nil
}

func (f *fakeTopicRepo) All() ([]string, error) { return f.Recent(0) }

func (f *fakeTopicRepo) Add(topics []string) error {
	f.added = append(f.added, topics)
	f.topics = append(f.topics, topics...)
	return nil
}

func (f *fakeTopicRepo) Clear() error {
	f.cleared = true
	f.topics = nil
	return nil
}

func (f *fakeTopicRepo) Count() (int64, error) { return int64(len(f.topics)), nil }

type fakeArchiveRepo struct {
	created []*model.GeneratedTest
}

func (f *fakeArchiveRepo) Create(test *model.GeneratedTest) error {
	f.created = append(f.created, test)
	return nil
}

func (f *fakeArchiveRepo) FindByTestID(testID string) (*model.GeneratedTest, error) {
	for _, t := range f.created {
		if t.TestID == testID {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeArchiveRepo) FindAllByType(testType string) ([]model.GeneratedTest, error) {
	var out []model.GeneratedTest
	for _, t := range f.created {
		if t.TestType == testType {
			out = append(out, *t)
		}
	}
	return out, nil
}

type synthCall struct {
	Text  string
	Voice string
	Rate  string
	Path  string
}

// fakeSynth records calls; failFor maps voice ids to forced errors. Safe for
// concurrent use, matching the Synthesizer contract.
type fakeSynth struct {
	mu      sync.Mutex
	calls   []synthCall
	failFor map[string]error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voice, rate, outputPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, synthCall{Text: text, Voice: voice, Rate: rate, Path: outputPath})
	f.mu.Unlock()
	if f.failFor != nil {
		if err, ok := f.failFor[voice]; ok {
			return err
		}
	}
	return nil
}

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
