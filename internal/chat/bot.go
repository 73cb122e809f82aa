// Package chat answers questions from an uploaded knowledge text using
// embedding retrieval.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"studykit/internal/ai"
	"studykit/internal/normalize"
	"studykit/internal/prompt"
	"studykit/internal/schema"
	"studykit/internal/utils"
	"studykit/internal/vectorstore"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Threshold    float64
	TopK         int
	// Model overrides the completion model for answers.
	Model string
}

const (
	DefaultNamespace = "default"
	embedBatchSize   = 32
	embedParallelism = 4
)

func DefaultConfig() Config {
	return Config{ChunkSize: 1200, ChunkOverlap: 100, Threshold: 0.1, TopK: 6}
}

type Bot struct {
	completer ai.Completer
	embedder  ai.Embedder
	store     vectorstore.Store
	selector  *prompt.Selector
	config    Config
	logger    *slog.Logger
}

func NewBot(completer ai.Completer, embedder ai.Embedder, store vectorstore.Store, selector *prompt.Selector, config Config, logger *slog.Logger) *Bot {
	def := DefaultConfig()
	if config.ChunkSize <= 0 {
		config.ChunkSize = def.ChunkSize
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = def.ChunkOverlap
	}
	if config.Threshold <= 0 {
		config.Threshold = def.Threshold
	}
	if config.TopK <= 0 {
		config.TopK = def.TopK
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Bot{
		completer: completer,
		embedder:  embedder,
		store:     store,
		selector:  selector,
		config:    config,
		logger:    logger.With("component", "chat"),
	}
}

func namespaceOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}
	return ns
}

// Ingest replaces the knowledge of a namespace with text and reports how
// many chunks were stored. Existing knowledge is kept when embedding fails.
func (b *Bot) Ingest(ctx context.Context, namespace, text string) (int, error) {
	namespace = namespaceOrDefault(namespace)

	chunks := SplitText(text, "\n", b.config.ChunkSize, b.config.ChunkOverlap)

	var docs []vectorstore.Document
	if len(chunks) > 0 {
		vectors, err := b.embedAll(ctx, chunks)
		if err != nil {
			return 0, err
		}
		docs = make([]vectorstore.Document, len(chunks))
		for i, c := range chunks {
			docs[i] = vectorstore.Document{Content: c, Embedding: vectors[i]}
		}
	}

	if err := b.store.Delete(ctx, namespace); err != nil {
		return 0, fmt.Errorf("error clearing knowledge: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	if err := b.store.Add(ctx, namespace, docs); err != nil {
		return 0, fmt.Errorf("error storing knowledge: %w", err)
	}

	b.logger.Info("knowledge ingested", "namespace", namespace, "chunks", len(chunks))
	return len(chunks), nil
}

// embedAll embeds chunks in batches, a few batches at a time.
func (b *Bot) embedAll(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(embedParallelism)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		g.Go(func() error {
			batch, err := b.embedder.Embed(ctx, chunks[start:end], ai.EmbeddingDocument)
			if err != nil {
				return fmt.Errorf("error embedding chunks %d-%d: %w", start, end, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("expected %d embeddings, got %d", end-start, len(batch))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (b *Bot) Reset(ctx context.Context, namespace string) error {
	if err := b.store.Delete(ctx, namespaceOrDefault(namespace)); err != nil {
		return fmt.Errorf("error resetting knowledge: %w", err)
	}
	return nil
}

func (b *Bot) Initialized(ctx context.Context, namespace string) (bool, error) {
	n, err := b.store.Count(ctx, namespaceOrDefault(namespace))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Retrieve returns the chunks most relevant to query.
func (b *Bot) Retrieve(ctx context.Context, namespace, query string) ([]string, error) {
	vectors, err := b.embedder.Embed(ctx, []string{query}, ai.EmbeddingQuery)
	if err != nil {
		return nil, fmt.Errorf("error embedding query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	matches, err := b.store.Match(ctx, namespaceOrDefault(namespace), vectors[0], b.config.Threshold, b.config.TopK)
	if err != nil {
		return nil, err
	}

	contents := make([]string, len(matches))
	for i, m := range matches {
		contents[i] = m.Content
	}
	return contents, nil
}

// Answer replies in the language of the query. An empty knowledge base or a
// query with no relevant chunks gets a canned reply instead of a completion.
func (b *Bot) Answer(ctx context.Context, namespace, query string) (string, error) {
	l := utils.English
	if utils.ContainsArabic(query) {
		l = utils.Arabic
	}

	ok, err := b.Initialized(ctx, namespace)
	if err != nil {
		return "", err
	}
	if !ok {
		return normalize.Message(normalize.MsgChatNotInitialized, l), nil
	}

	chunks, err := b.Retrieve(ctx, namespace, query)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return normalize.Message(normalize.MsgChatNoContext, l), nil
	}

	tmpl, err := b.selector.Select(schema.Chat, l)
	if err != nil {
		return "", err
	}
	p, err := tmpl.Render(prompt.Data{Context: chunks, Query: query})
	if err != nil {
		return "", err
	}

	answer, err := b.completer.Complete(ctx, p, ai.GenerateOptions{Model: b.config.Model})
	if err != nil {
		return "", fmt.Errorf("error generating answer: %w", err)
	}

	return strings.TrimSpace(answer), nil
}
