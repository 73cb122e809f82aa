// Package vectorstore stores embedded text chunks and finds the ones most
// similar to a query vector.
package vectorstore

import (
	"context"
	"math"
	"sort"
)

type Document struct {
	Content   string
	Embedding []float32
}

type Match struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type Store interface {
	Add(ctx context.Context, namespace string, docs []Document) error
	// Match returns at most count documents whose cosine similarity to vector
	// exceeds threshold, most similar first.
	Match(ctx context.Context, namespace string, vector []float32, threshold float64, count int) ([]Match, error)
	Count(ctx context.Context, namespace string) (int, error)
	Delete(ctx context.Context, namespace string) error
}

// CosineSimilarity returns 0 for vectors of different length or zero norm.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func topMatches(matches []Match, count int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if count > 0 && len(matches) > count {
		matches = matches[:count]
	}
	return matches
}
