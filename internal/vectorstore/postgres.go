package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents in a pgvector column and lets the server rank
// them.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	p := &Postgres{pool: pool, table: "documents"}
	if err := p.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %[1]s (
			id BIGSERIAL PRIMARY KEY,
			namespace TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_namespace ON %[1]s(namespace);
	`, p.table)

	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("error creating vector schema: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// vectorLiteral formats v in pgvector's text form.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func (p *Postgres) Add(ctx context.Context, namespace string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (namespace, content, embedding) VALUES ($1, $2, $3::vector)`, p.table)

	batch := &pgx.Batch{}
	for _, d := range docs {
		batch.Queue(query, namespace, d.Content, vectorLiteral(d.Embedding))
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range docs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("error inserting document: %w", err)
		}
	}

	return nil
}

func (p *Postgres) Match(ctx context.Context, namespace string, vector []float32, threshold float64, count int) ([]Match, error) {
	query := fmt.Sprintf(`
		SELECT id, content, 1 - (embedding <=> $2::vector) AS similarity
		FROM %s
		WHERE namespace = $1 AND 1 - (embedding <=> $2::vector) > $3
		ORDER BY embedding <=> $2::vector
		LIMIT $4
	`, p.table)

	rows, err := p.pool.Query(ctx, query, namespace, vectorLiteral(vector), threshold, count)
	if err != nil {
		return nil, fmt.Errorf("error matching documents: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			id int64
			m  Match
		)
		if err := rows.Scan(&id, &m.Content, &m.Similarity); err != nil {
			return nil, fmt.Errorf("error scanning match: %w", err)
		}
		m.ID = strconv.FormatInt(id, 10)
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return matches, nil
}

func (p *Postgres) Count(ctx context.Context, namespace string) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE namespace = $1`, p.table)
	if err := p.pool.QueryRow(ctx, query, namespace).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting documents: %w", err)
	}
	return n, nil
}

func (p *Postgres) Delete(ctx context.Context, namespace string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1`, p.table)
	if _, err := p.pool.Exec(ctx, query, namespace); err != nil {
		return fmt.Errorf("error deleting documents: %w", err)
	}
	return nil
}
