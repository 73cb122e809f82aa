package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("ocr engine is not configured")

// Engine turns image bytes into text.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

type Config struct {
	Provider        string   `yaml:"provider" validate:"omitempty,oneof=vision tesseract none"`
	CredentialsFile string   `yaml:"credentials_file"`
	TesseractPath   string   `yaml:"tesseract_path"`
	Languages       []string `yaml:"languages"`
}

// NewEngine builds the configured engine. Vision falls back to tesseract when
// the API client cannot be created.
func NewEngine(ctx context.Context, cfg Config, logger *slog.Logger) (Engine, error) {
	switch cfg.Provider {
	case "none":
		return nil, ErrNotConfigured
	case "tesseract":
		return NewTesseractEngine(cfg.TesseractPath, cfg.Languages), nil
	}

	engine, err := NewVisionEngine(ctx, cfg.CredentialsFile, cfg.Languages)
	if err != nil {
		logger.Warn("vision OCR unavailable, using tesseract", slog.String("error", err.Error()))
		return NewTesseractEngine(cfg.TesseractPath, cfg.Languages), nil
	}
	return engine, nil
}

type VisionEngine struct {
	client    *vision.ImageAnnotatorClient
	languages []string
}

func NewVisionEngine(ctx context.Context, credentialsFile string, languages []string) (*VisionEngine, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &VisionEngine{client: client, languages: languages}, nil
}

func (v *VisionEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: v.languages,
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", nil
	}

	r := resp.GetResponses()[0]
	if r.GetError() != nil && r.GetError().GetMessage() != "" {
		return "", fmt.Errorf("vision annotate: %s", r.GetError().GetMessage())
	}

	return strings.TrimSpace(r.GetFullTextAnnotation().GetText()), nil
}

func (v *VisionEngine) Close() error {
	return v.client.Close()
}

// TesseractEngine shells out to the tesseract binary, reading the image from
// stdin and the text from stdout.
type TesseractEngine struct {
	path      string
	languages []string
}

func NewTesseractEngine(path string, languages []string) *TesseractEngine {
	if path == "" {
		path = "tesseract"
	}
	return &TesseractEngine{path: path, languages: languages}
}

func (t *TesseractEngine) args() []string {
	args := []string{"stdin", "stdout"}
	if langs := tesseractLanguages(t.languages); langs != "" {
		args = append(args, "-l", langs)
	}
	return args
}

func (t *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if _, err := exec.LookPath(t.path); err != nil {
		return "", fmt.Errorf("%w: %s not found", ErrNotConfigured, t.path)
	}

	cmd := exec.CommandContext(ctx, t.path, t.args()...)
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

// tesseractLanguages maps ISO 639-1 hints to tesseract traineddata names.
func tesseractLanguages(hints []string) string {
	codes := map[string]string{
		"ar": "ara",
		"en": "eng",
		"es": "spa",
		"fr": "fra",
		"de": "deu",
	}

	var out []string
	for _, h := range hints {
		h = strings.ToLower(strings.TrimSpace(h))
		if c, ok := codes[h]; ok {
			out = append(out, c)
		} else if h != "" {
			out = append(out, h)
		}
	}
	return strings.Join(out, "+")
}
