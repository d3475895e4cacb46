// Offline corpus indexer: load every supported document from a source
// directory, chunk, embed and upsert into the vector index, then exit.
// Repeated runs append; use -reset to rebuild the collection from scratch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/rag/embedding"
	"github.com/mapleproto/reportchat/internal/rag/embedding/googleEmbedding"
	"github.com/mapleproto/reportchat/internal/rag/embedding/openaiEmbedding"
	"github.com/mapleproto/reportchat/internal/rag/ingest"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB/qdrantDB"
	"github.com/mapleproto/reportchat/pkg/logger_i"
)

var (
	sourceDir string
	reset     bool
)

func main() {
	logger_i.Init()
	logger := logger_i.NewLogger("ingest")

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using process environment")
	}

	flag.StringVar(&sourceDir, "data", config.SourceDocsDir, "directory holding the source documents")
	flag.BoolVar(&reset, "reset", false, "drop and recreate the collection before indexing")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	embedder := buildEmbedder(ctx)
	index := qdrantDB.GetQdrantClient(ctx)
	if embedder == nil || index == nil {
		logger.Error("External services failed to initialize", "Embedder", embedder != nil, "Index", index != nil)
		os.Exit(1)
	}

	count, err := ingest.BuildIndex(ctx, sourceDir, embedder, index, reset)
	if err != nil {
		logger.Error("Indexing run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("success: indexed %d chunks from %s\n", count, sourceDir)
}

func buildEmbedder(ctx context.Context) embedding.Embedder {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = config.LLMProvider
	}

	if provider == "openai" {
		apikey := os.Getenv("OPENAI_API_KEY")
		if apikey == "" {
			apikey = config.OpenAIAPIKey
		}
		return openaiEmbedding.GetOpenAIEmbeddingClient(config.OpenAIEmbeddingModel, apikey)
	}

	apikey := os.Getenv("GOOGLE_API_KEY")
	if apikey == "" {
		apikey = config.GoogleEmbeddingAPIKey
	}
	return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, apikey)
}
