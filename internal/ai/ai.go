package ai

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when a provider answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// GenerateOptions tune a single completion call. Zero values leave the
// provider defaults in place.
type GenerateOptions struct {
	Temperature float32
	TopP        float32
	Stop        []string
	// Model overrides the client's default model.
	Model string
}

type Completer interface {
	Complete(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

type EmbeddingKind string

const (
	EmbeddingQuery    EmbeddingKind = "query"
	EmbeddingDocument EmbeddingKind = "document"
)

type Embedder interface {
	Embed(ctx context.Context, texts []string, kind EmbeddingKind) ([][]float32, error)
}

// Client is a provider that can both complete and embed.
type Client interface {
	Completer
	Embedder
}
