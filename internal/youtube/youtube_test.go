package youtube

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{name: "Watch URL", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", expected: "dQw4w9WgXcQ"},
		{name: "Watch URL with params", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", expected: "dQw4w9WgXcQ"},
		{name: "Short URL", url: "https://youtu.be/dQw4w9WgXcQ", expected: "dQw4w9WgXcQ"},
		{name: "Embed URL", url: "https://www.youtube.com/embed/dQw4w9WgXcQ/", expected: "dQw4w9WgXcQ"},
		{name: "Too short", url: "https://youtu.be/abc", wantErr: true},
		{name: "Not a URL", url: "hello world", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := VideoID(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

type fakeSource struct {
	tracks   []Track
	segments map[Track][]string
	err      error
	read     []Track
}

func (f *fakeSource) Tracks(_ context.Context, _ string) ([]Track, error) {
	return f.tracks, f.err
}

func (f *fakeSource) Segments(_ context.Context, _ string, track Track) ([]string, error) {
	f.read = append(f.read, track)
	return f.segments[track], nil
}

func TestFetchPreferredLanguage(t *testing.T) {
	en := Track{LanguageCode: "en"}
	arAuto := Track{LanguageCode: "ar", Generated: true}
	source := &fakeSource{
		tracks: []Track{arAuto, en},
		segments: map[Track][]string{
			en:     {"hello", "world"},
			arAuto: {"مرحبا"},
		},
	}

	transcript, err := NewFetcher(source).Fetch(context.Background(), "dQw4w9WgXcQ", nil)
	require.NoError(t, err)
	assert.Equal(t, en, transcript.Track)
	assert.Equal(t, "hello world", transcript.Text())
}

func TestFetchFallsBackToGeneratedThenFirst(t *testing.T) {
	jaAuto := Track{LanguageCode: "ja", Generated: true}
	ko := Track{LanguageCode: "ko"}

	t.Run("Auto-generated", func(t *testing.T) {
		source := &fakeSource{
			tracks:   []Track{ko, jaAuto},
			segments: map[Track][]string{ko: {"annyeong"}, jaAuto: {"konnichiwa"}},
		}

		transcript, err := NewFetcher(source).Fetch(context.Background(), "id", []string{"en"})
		require.NoError(t, err)
		assert.Equal(t, jaAuto, transcript.Track)
	})

	t.Run("First available", func(t *testing.T) {
		source := &fakeSource{
			tracks:   []Track{ko},
			segments: map[Track][]string{ko: {"annyeong"}},
		}

		transcript, err := NewFetcher(source).Fetch(context.Background(), "id", []string{"en"})
		require.NoError(t, err)
		assert.Equal(t, "annyeong", transcript.Text())
	})
}

func TestFetchErrors(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		_, err := NewFetcher(&fakeSource{}).Fetch(context.Background(), "id", nil)
		assert.ErrorIs(t, err, ErrTranscriptsDisabled)
	})

	t.Run("Empty tracks", func(t *testing.T) {
		source := &fakeSource{tracks: []Track{{LanguageCode: "fr"}, {LanguageCode: "de", Generated: true}}}

		_, err := NewFetcher(source).Fetch(context.Background(), "id", nil)
		require.ErrorIs(t, err, ErrNoTranscript)

		var noTranscript *NoTranscriptError
		require.True(t, errors.As(err, &noTranscript))
		assert.Equal(t, "fr, de (auto-generated)", noTranscript.Languages())
	})

	t.Run("Source failure", func(t *testing.T) {
		_, err := NewFetcher(&fakeSource{err: errors.New("network")}).Fetch(context.Background(), "id", nil)
		assert.EqualError(t, err, "network")
	})
}

func TestCandidatesOrder(t *testing.T) {
	tracks := []Track{
		{LanguageCode: "de", Generated: true},
		{LanguageCode: "ar"},
		{LanguageCode: "en", Generated: true},
		{LanguageCode: "it"},
	}

	got := candidates(tracks, DefaultLanguages)
	assert.Equal(t, []Track{
		{LanguageCode: "en", Generated: true},
		{LanguageCode: "ar"},
		{LanguageCode: "de", Generated: true},
		{LanguageCode: "it"},
	}, got)
}
