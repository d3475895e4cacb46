package openaiEmbedding

import (
	"context"
	"sync"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/rag/embedding"
	"github.com/mapleproto/reportchat/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	openai *openai.Client
	model  string
}

// GetOpenAIEmbeddingClient is the alternate provider; selected with
// LLM_PROVIDER=openai. Same contract as the Google embedder.
func GetOpenAIEmbeddingClient(modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		if apikey == "" {
			logger.Error("OpenAI API key is empty")
			return
		}
		c := openai.NewClient(option.WithAPIKey(apikey))
		embeddingClient = &client{openai: &c, model: modelName}
		logger.Info("OpenAI Embedding client created")
	})

	if embeddingClient == nil {
		return nil
	}
	return &client{openai: embeddingClient.openai, model: embeddingClient.model}
}

func (c *client) Dimension() int {
	return int(config.EmbeddingOutputDimensionality)
}

func (c *client) ModelID() string {
	return c.model
}

func (c *client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) EmbedBatch(ctx context.Context, chunks []string) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	if len(chunks) == 0 {
		return [][]float32{}, nil
	}

	res, err := c.openai.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:      openai.EmbeddingModel(c.model),
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunks},
		Dimensions: openai.Int(int64(config.EmbeddingOutputDimensionality)),
	})
	if err != nil {
		log.Error("Error getting embeddings from OpenAI", "error", err)
		return nil, err
	}

	results := make([][]float32, 0, len(res.Data))
	for _, d := range res.Data {
		vec := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			vec[i] = float32(x)
		}
		results = append(results, vec)
	}
	return embedding.NormalizeBatch(results), nil
}
