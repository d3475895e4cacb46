package qdrantDB

import (
	"context"
	"time"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/qdrant/go-client/qdrant"
)

// The answer cache stores fully synthesized answers keyed by query embedding.
// Retrieval itself is never cached - only what the whole pipeline produced.
// The collection name carries the embedding model (vectorDB.CacheCollectionFor)
// so a provider switch starts from an empty cache instead of matching against
// another model's vectors.

func (db *ClientHolder) GetCachedAnswer(ctx context.Context, collectionName string, queryVector []float32) (string, bool, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	exists, err := db.QObj.CollectionExists(ctx, collectionName)
	if err != nil || !exists {
		return "", false, err
	}

	searchResult, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil || len(searchResult) == 0 {
		return "", false, err
	}

	loggr.Debug("Found cached answer", "semantic similarity score", searchResult[0].Score)
	if searchResult[0].Score < config.CacheSimilarityCutoff {
		return "", false, nil
	}

	loggr.Info("answer cache hit")
	answer := searchResult[0].Payload["answer"].GetStringValue()
	return answer, true, nil
}

func (db *ClientHolder) SaveToCache(ctx context.Context, collectionName string, id string, vector []float32, answer string) error {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	loggr.Debug("Saving answer to cache")
	if err := ensureCollection(ctx, db.QObj, collectionName, uint64(len(vector))); err != nil {
		loggr.Error("Answer cache collection creation failed", "error", err)
		return err
	}
	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"answer":    answer,
					"timestamp": time.Now().Unix(),
				}),
			},
		},
	})
	if err != nil {
		loggr.Error("Saving answer to cache failed", "error", err)
	}
	return err
}
