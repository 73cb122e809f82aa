package testutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"studykit/internal/ai"
	"studykit/internal/youtube"
	"sync"
)

// FakeCompleter answers each call with the next queued reply. An empty
// queue answers with ai.ErrEmptyCompletion.
type FakeCompleter struct {
	mu      sync.Mutex
	replies []fakeReply
	Prompts []string
	Options []ai.GenerateOptions
}

type fakeReply struct {
	text string
	err  error
}

func (f *FakeCompleter) Reply(texts ...string) *FakeCompleter {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range texts {
		f.replies = append(f.replies, fakeReply{text: t})
	}
	return f
}

func (f *FakeCompleter) Fail(err error) *FakeCompleter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, fakeReply{err: err})
	return f
}

func (f *FakeCompleter) Complete(_ context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Prompts = append(f.Prompts, prompt)
	f.Options = append(f.Options, opts)
	if len(f.replies) == 0 {
		return "", ai.ErrEmptyCompletion
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.text, r.err
}

func (f *FakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}

// FakeEmbedder maps text onto a small bag-of-keywords vector so related
// chunks score above the retrieval threshold.
type FakeEmbedder struct {
	Err error
}

var embedKeywords = []string{"cell", "energy", "water", "planet", "history", "خلية", "طاقة"}

func (f *FakeEmbedder) Embed(_ context.Context, texts []string, _ ai.EmbeddingKind) ([][]float32, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		v := make([]float32, len(embedKeywords)+1)
		for j, kw := range embedKeywords {
			v[j] = float32(strings.Count(lower, kw))
		}
		// keeps unrelated text from being a zero vector
		v[len(embedKeywords)] = 0.01
		vectors[i] = v
	}
	return vectors, nil
}

// FakeTranscripts returns a fixed transcript or error.
type FakeTranscripts struct {
	Transcript youtube.Transcript
	Err        error
	Requested  []string
}

func (f *FakeTranscripts) Fetch(_ context.Context, videoID string, _ []string) (youtube.Transcript, error) {
	f.Requested = append(f.Requested, videoID)
	if f.Err != nil {
		return youtube.Transcript{}, f.Err
	}
	return f.Transcript, nil
}

type FakeOCR struct {
	Text string
	Err  error
}

func (f *FakeOCR) Recognize(_ context.Context, _ []byte) (string, error) {
	return f.Text, f.Err
}

// MockStorageProvider is a mock implementation of the storage.Provider interface
type MockStorageProvider struct {
	mu            sync.Mutex
	UploadedFiles map[string][]byte
	UploadError   error
	GetURLFunc    func(filename string) (string, error)
}

func NewMockStorageProvider() *MockStorageProvider {
	return &MockStorageProvider{
		UploadedFiles: make(map[string][]byte),
	}
}

func (m *MockStorageProvider) UploadFile(_ context.Context, data io.Reader, filename string, _ string) (string, error) {
	if m.UploadError != nil {
		return "", m.UploadError
	}

	content, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("error reading upload: %w", err)
	}

	m.mu.Lock()
	m.UploadedFiles[filename] = content
	m.mu.Unlock()

	return m.GetFileURL(filename)
}

func (m *MockStorageProvider) GetFileURL(filename string) (string, error) {
	if m.GetURLFunc != nil {
		return m.GetURLFunc(filename)
	}
	if filename == "" {
		return "", errors.New("empty filename")
	}
	return "https://example.com/" + filename, nil
}

func (m *MockStorageProvider) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.UploadedFiles)
}
