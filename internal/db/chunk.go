package db

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

type Chunk struct {
	ID        string    `db:"id" json:"id"`
	Namespace string    `db:"namespace" json:"namespace"`
	Seq       int       `db:"seq" json:"seq"`
	Content   string    `db:"content" json:"content"`
	Embedding []float32 `db:"embedding" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeEmbedding(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob has %d bytes", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}

// SaveChunks inserts chunks in one transaction, assigning ids to those
// without one.
func (s *Storage) SaveChunks(ctx context.Context, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, namespace, seq, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("error preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			if c.ID, err = nanoid.New(); err != nil {
				return fmt.Errorf("error generating chunk id: %w", err)
			}
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}

		if _, err := stmt.ExecContext(ctx, c.ID, c.Namespace, c.Seq, c.Content, encodeEmbedding(c.Embedding), c.CreatedAt); err != nil {
			return fmt.Errorf("error inserting chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing chunks: %w", err)
	}

	return nil
}

func (s *Storage) DeleteChunks(ctx context.Context, namespace string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("error deleting chunks: %w", err)
	}
	return nil
}

func (s *Storage) CountChunks(ctx context.Context, namespace string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE namespace = ?`, namespace).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting chunks: %w", err)
	}
	return n, nil
}

func (s *Storage) ListChunks(ctx context.Context, namespace string) ([]Chunk, error) {
	query := `
		SELECT id, namespace, seq, content, embedding, created_at
		FROM chunks
		WHERE namespace = ?
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, namespace)
	if err != nil {
		return nil, fmt.Errorf("error getting chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var (
			c    Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.Namespace, &c.Seq, &c.Content, &blob, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning chunk: %w", err)
		}
		if c.Embedding, err = decodeEmbedding(blob); err != nil {
			return nil, fmt.Errorf("error decoding chunk %s: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunk rows: %w", err)
	}

	return chunks, nil
}
