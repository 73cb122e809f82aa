package docs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"studykit/internal/ocr"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Loader extracts plain text from a document's bytes.
type Loader interface {
	Load(ctx context.Context, data []byte) (string, error)
}

type LoaderFunc func(ctx context.Context, data []byte) (string, error)

func (f LoaderFunc) Load(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

// Registry picks a loader by file extension.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry registers the document loaders and, when an OCR engine is
// given, the image loaders.
func NewRegistry(engine ocr.Engine) *Registry {
	r := &Registry{loaders: map[string]Loader{}}

	r.Register("pdf", LoaderFunc(LoadPDF))
	r.Register("docx", LoaderFunc(LoadDOCX))
	r.Register("pptx", LoaderFunc(LoadPPTX))
	r.Register("txt", TextLoader{Fallback: charmap.ISO8859_1})

	if engine != nil {
		image := ImageLoader{Engine: engine}
		for _, ext := range []string{"jpg", "jpeg", "png", "bmp", "tiff", "gif"} {
			r.Register(ext, image)
		}
	}

	return r
}

func (r *Registry) Register(ext string, l Loader) {
	r.loaders[strings.ToLower(ext)] = l
}

func (r *Registry) SupportedFormats() []string {
	formats := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		formats = append(formats, ext)
	}
	sort.Strings(formats)
	return formats
}

// Extension returns the lowercased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

func (r *Registry) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := Extension(filename)
	l, ok := r.loaders[ext]
	if !ok {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}

	text, err := l.Load(ctx, data)
	if err != nil {
		return "", fmt.Errorf("error extracting .%s: %w", ext, err)
	}
	return strings.TrimSpace(text), nil
}

func LoadPDF(_ context.Context, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(text)
		}
	}

	return b.String(), nil
}

// TextLoader reads UTF-8 and decodes anything else with the fallback
// single-byte encoding.
type TextLoader struct {
	Fallback encoding.Encoding
}

func (t TextLoader) Load(_ context.Context, data []byte) (string, error) {
	return DecodeText(data, t.Fallback)
}

func DecodeText(data []byte, fallback encoding.Encoding) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	if fallback == nil {
		return "", errors.New("text is not valid UTF-8")
	}

	decoded, err := io.ReadAll(fallback.NewDecoder().Reader(bytes.NewReader(data)))
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return string(decoded), nil
}

type ImageLoader struct {
	Engine ocr.Engine
}

func (i ImageLoader) Load(ctx context.Context, data []byte) (string, error) {
	text, err := i.Engine.Recognize(ctx, data)
	if err != nil {
		return "", fmt.Errorf("OCR processing failed: %w", err)
	}
	return text, nil
}
