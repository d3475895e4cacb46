package embedding

import (
	"context"
	"math"
)

type Embedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	EmbedBatch(ctx context.Context, chunks []string) ([][]float32, error)
	Dimension() int
	ModelID() string
}

// Normalize scales v to unit L2 length in place and returns it.
// All vectors leaving an Embedder go through this so the index and the
// query side always share one normalization convention.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

func NormalizeBatch(vectors [][]float32) [][]float32 {
	for i := range vectors {
		vectors[i] = Normalize(vectors[i])
	}
	return vectors
}
