package vectorstore

import (
	"context"
	"os"
	"studykit/internal/db"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"Orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"Length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"Zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	storage, err := db.ConnectDB(":memory:")
	require.NoError(t, err)
	defer storage.Close()

	store := NewSQLite(storage)

	require.NoError(t, store.Add(ctx, "kb", []Document{
		{Content: "squats", Embedding: []float32{1, 0, 0}},
		{Content: "deadlifts", Embedding: []float32{0.9, 0.1, 0}},
		{Content: "swimming", Embedding: []float32{0, 0, 1}},
	}))
	require.NoError(t, store.Add(ctx, "kb", []Document{
		{Content: "lunges", Embedding: []float32{0.7, 0.7, 0}},
	}))

	n, err := store.Count(ctx, "kb")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	matches, err := store.Match(ctx, "kb", []float32{1, 0, 0}, 0.1, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "squats", matches[0].Content)
	assert.Equal(t, "deadlifts", matches[1].Content)

	matches, err = store.Match(ctx, "kb", []float32{1, 0, 0}, 0.1, 6)
	require.NoError(t, err)
	assert.Len(t, matches, 3, "orthogonal document is below the threshold")

	require.NoError(t, store.Delete(ctx, "kb"))
	matches, err = store.Match(ctx, "kb", []float32{1, 0, 0}, 0.1, 6)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[0.5,-1,2.25]", vectorLiteral([]float32{0.5, -1, 2.25}))
	assert.Equal(t, "[]", vectorLiteral(nil))
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := NewPostgres(ctx, url)
	require.NoError(t, err)
	defer store.Close()

	ns := "test-namespace"
	require.NoError(t, store.Delete(ctx, ns))
	defer store.Delete(ctx, ns)

	require.NoError(t, store.Add(ctx, ns, []Document{
		{Content: "a", Embedding: []float32{1, 0}},
		{Content: "b", Embedding: []float32{0, 1}},
	}))

	matches, err := store.Match(ctx, ns, []float32{1, 0}, 0.1, 6)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].Content)
}
