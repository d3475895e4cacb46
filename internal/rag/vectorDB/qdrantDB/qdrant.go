package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/domain/docModel"
	"github.com/mapleproto/reportchat/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQdrantClient(ctx context.Context) *ClientHolder {

	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: qdrantInstance,
	}
}

func newClient() *qdrant.Client {

	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, collectionName string, dim uint64) error {
	return ensureCollection(ctx, db.QObj, collectionName, dim)
}

func (db *ClientHolder) DeleteCollection(ctx context.Context, collectionName string) error {
	return db.QObj.DeleteCollection(ctx, collectionName)
}

func (db *ClientHolder) Query(ctx context.Context, collectionName string, vectorFloat []float32, k uint64) ([]docModel.Match, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vectorFloat...),
		Limit:          qdrant.PtrOf(k),
		WithPayload:    qdrant.NewWithPayload(true),
	})

	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	var matches []docModel.Match
	for _, hit := range result {
		metadata := map[string]any{}
		for key, value := range hit.Payload {
			switch kind := value.GetKind().(type) {
			case *qdrant.Value_StringValue:
				metadata[key] = kind.StringValue
			case *qdrant.Value_IntegerValue:
				metadata[key] = kind.IntegerValue
			case *qdrant.Value_DoubleValue:
				metadata[key] = kind.DoubleValue
			case *qdrant.Value_BoolValue:
				metadata[key] = kind.BoolValue
			}
		}

		matches = append(matches, docModel.Match{
			Text:     hit.Payload["content"].GetStringValue(),
			Score:    hit.Score,
			Metadata: metadata,
		})
	}

	loggr.Debug("Qdrant query", "matches found", len(matches))
	return matches, nil
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, collectionName string, chunks []docModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))

	for i, chunk := range chunks {
		// payload keys are scalar-only - PrepareChunks ran the metadata
		// through the scrubber before the chunk got here
		payload := map[string]any{
			"content":  chunk.Text,
			"chunk_id": chunk.ChunkId,
		}
		for key, value := range chunk.Metadata {
			payload[key] = value
		}

		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})

	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}

	return nil
}

func ensureCollection(ctx context.Context, client *qdrant.Client, collectionName string, dim uint64) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	if dim == 0 {
		dim = dimension
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		// a collection built with a different embedding dimension means a
		// different model wrote it - fatal configuration error, not recoverable
		info, err := client.GetCollectionInfo(ctx, collectionName)
		if err != nil {
			return err
		}
		existing := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if existing != 0 && existing != dim {
			return fmt.Errorf("collection %s has dimension %d, embedder produces %d", collectionName, existing, dim)
		}
		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}
