package vectorDB

import (
	"context"
	"strings"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/domain/docModel"
)

// Index is the persistence boundary for chunk embeddings. Query results are
// ordered by descending similarity and never exceed k entries.
type Index interface {
	EnsureCollection(ctx context.Context, collectionName string, dimension uint64) error
	DeleteCollection(ctx context.Context, collectionName string) error
	UpsertBatch(ctx context.Context, collectionName string, chunks []docModel.Chunk, vectors [][]float32) error
	Query(ctx context.Context, collectionName string, vector []float32, k uint64) ([]docModel.Match, error)

	// answer cache - synthesized answers keyed by query embedding
	GetCachedAnswer(ctx context.Context, collectionName string, queryVector []float32) (string, bool, error)
	SaveToCache(ctx context.Context, collectionName string, id string, vector []float32, answer string) error
}

// CollectionFor derives the collection name from the embedding model so that
// vectors from two models can never land in the same index.
func CollectionFor(embeddingModelID string) string {
	return config.IndexCollectionPrefix + "-" + modelSlug(embeddingModelID)
}

// CacheCollectionFor scopes the answer cache the same way: cache entries are
// keyed by query embedding, so entries from two models must never compete in
// one similarity space.
func CacheCollectionFor(embeddingModelID string) string {
	return config.AnswerCachePrefix + "-" + modelSlug(embeddingModelID)
}

func modelSlug(embeddingModelID string) string {
	slug := strings.ToLower(embeddingModelID)
	return strings.NewReplacer("/", "-", ":", "-", ".", "-", " ", "-").Replace(slug)
}
