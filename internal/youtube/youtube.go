package youtube

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	kkdai "github.com/kkdai/youtube/v2"
)

var (
	ErrInvalidURL          = errors.New("invalid YouTube URL")
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	ErrNoTranscript        = errors.New("no transcript found")
)

// DefaultLanguages are tried in order before any other track.
var DefaultLanguages = []string{"en", "ar", "es", "fr", "de"}

var videoIDPattern = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})(?:&|/|$)`)

// VideoID extracts the 11 character id from watch, short and embed URLs.
func VideoID(url string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", ErrInvalidURL
	}
	return m[1], nil
}

type Track struct {
	LanguageCode string
	Generated    bool
}

func (t Track) Label() string {
	if t.Generated {
		return t.LanguageCode + " (auto-generated)"
	}
	return t.LanguageCode
}

type Transcript struct {
	VideoID  string
	Track    Track
	Segments []string
}

func (t Transcript) Text() string {
	return strings.Join(t.Segments, " ")
}

// NoTranscriptError lists the tracks a video does have.
type NoTranscriptError struct {
	VideoID   string
	Available []Track
}

func (e *NoTranscriptError) Error() string {
	return fmt.Sprintf("no transcript found for %s, available languages: %s", e.VideoID, e.Languages())
}

func (e *NoTranscriptError) Is(target error) bool {
	return target == ErrNoTranscript
}

func (e *NoTranscriptError) Languages() string {
	labels := make([]string, 0, len(e.Available))
	for _, t := range e.Available {
		labels = append(labels, t.Label())
	}
	return strings.Join(labels, ", ")
}

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, langs []string) (Transcript, error)
}

// Source lists caption tracks and reads one of them.
type Source interface {
	Tracks(ctx context.Context, videoID string) ([]Track, error)
	Segments(ctx context.Context, videoID string, track Track) ([]string, error)
}

type Fetcher struct {
	source Source
}

func NewFetcher(source Source) *Fetcher {
	return &Fetcher{source: source}
}

// Fetch reads the first track matching langs in order, then any
// auto-generated track, then the first track listed.
func (f *Fetcher) Fetch(ctx context.Context, videoID string, langs []string) (Transcript, error) {
	if len(langs) == 0 {
		langs = DefaultLanguages
	}

	tracks, err := f.source.Tracks(ctx, videoID)
	if err != nil {
		return Transcript{}, err
	}
	if len(tracks) == 0 {
		return Transcript{}, ErrTranscriptsDisabled
	}

	for _, track := range candidates(tracks, langs) {
		segments, err := f.source.Segments(ctx, videoID, track)
		if err != nil {
			return Transcript{}, fmt.Errorf("error fetching %s transcript: %w", track.Label(), err)
		}
		if len(segments) > 0 {
			return Transcript{VideoID: videoID, Track: track, Segments: segments}, nil
		}
	}

	return Transcript{}, &NoTranscriptError{VideoID: videoID, Available: tracks}
}

func candidates(tracks []Track, langs []string) []Track {
	var out []Track
	seen := make(map[Track]bool)
	add := func(t Track) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	for _, lang := range langs {
		for _, t := range tracks {
			if !t.Generated && strings.EqualFold(t.LanguageCode, lang) {
				add(t)
			}
		}
		for _, t := range tracks {
			if t.Generated && strings.EqualFold(t.LanguageCode, lang) {
				add(t)
			}
		}
	}
	for _, t := range tracks {
		if t.Generated {
			add(t)
		}
	}
	for _, t := range tracks {
		add(t)
	}

	return out
}

// KKDaiSource reads caption tracks through the innertube client.
type KKDaiSource struct {
	client *kkdai.Client
}

func NewKKDaiSource() *KKDaiSource {
	return &KKDaiSource{client: &kkdai.Client{}}
}

func (s *KKDaiSource) video(ctx context.Context, videoID string) (*kkdai.Video, error) {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("error loading video %s: %w", videoID, err)
	}
	return video, nil
}

func (s *KKDaiSource) Tracks(ctx context.Context, videoID string) ([]Track, error) {
	video, err := s.video(ctx, videoID)
	if err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(video.CaptionTracks))
	for _, c := range video.CaptionTracks {
		tracks = append(tracks, Track{LanguageCode: c.LanguageCode, Generated: c.Kind == "asr"})
	}
	return tracks, nil
}

func (s *KKDaiSource) Segments(ctx context.Context, videoID string, track Track) ([]string, error) {
	video, err := s.video(ctx, videoID)
	if err != nil {
		return nil, err
	}

	transcript, err := s.client.GetTranscriptCtx(ctx, video, track.LanguageCode)
	if errors.Is(err, kkdai.ErrTranscriptDisabled) {
		return nil, ErrTranscriptsDisabled
	}
	if err != nil {
		return nil, err
	}

	segments := make([]string, 0, len(transcript))
	for _, seg := range transcript {
		if text := strings.TrimSpace(seg.Text); text != "" {
			segments = append(segments, text)
		}
	}
	return segments, nil
}
