package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTesseractLanguages(t *testing.T) {
	tests := []struct {
		name     string
		hints    []string
		expected string
	}{
		{"Arabic and English", []string{"ar", "en"}, "ara+eng"},
		{"Unknown code kept", []string{"EN", "jpn"}, "eng+jpn"},
		{"Empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tesseractLanguages(tt.hints))
		})
	}
}

func TestTesseractArgs(t *testing.T) {
	engine := NewTesseractEngine("", []string{"ar", "en"})
	assert.Equal(t, "tesseract", engine.path)
	assert.Equal(t, []string{"stdin", "stdout", "-l", "ara+eng"}, engine.args())

	assert.Equal(t, []string{"stdin", "stdout"}, NewTesseractEngine("", nil).args())
}

func TestTesseractMissingBinary(t *testing.T) {
	engine := NewTesseractEngine("/nonexistent/tesseract-binary", nil)

	_, err := engine.Recognize(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
