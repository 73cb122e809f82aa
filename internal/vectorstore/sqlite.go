package vectorstore

import (
	"context"
	"fmt"
	"studykit/internal/db"
)

// SQLite keeps vectors next to the chunks and scans them on every query.
type SQLite struct {
	storage *db.Storage
}

func NewSQLite(storage *db.Storage) *SQLite {
	return &SQLite{storage: storage}
}

func (s *SQLite) Add(ctx context.Context, namespace string, docs []Document) error {
	start, err := s.storage.CountChunks(ctx, namespace)
	if err != nil {
		return err
	}

	chunks := make([]db.Chunk, len(docs))
	for i, d := range docs {
		chunks[i] = db.Chunk{
			Namespace: namespace,
			Seq:       start + i,
			Content:   d.Content,
			Embedding: d.Embedding,
		}
	}

	if err := s.storage.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("error adding documents: %w", err)
	}
	return nil
}

func (s *SQLite) Match(ctx context.Context, namespace string, vector []float32, threshold float64, count int) ([]Match, error) {
	chunks, err := s.storage.ListChunks(ctx, namespace)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, c := range chunks {
		sim := CosineSimilarity(vector, c.Embedding)
		if sim > threshold {
			matches = append(matches, Match{ID: c.ID, Content: c.Content, Similarity: sim})
		}
	}

	return topMatches(matches, count), nil
}

func (s *SQLite) Count(ctx context.Context, namespace string) (int, error) {
	return s.storage.CountChunks(ctx, namespace)
}

func (s *SQLite) Delete(ctx context.Context, namespace string) error {
	return s.storage.DeleteChunks(ctx, namespace)
}
