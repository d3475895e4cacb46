// MCP stdio server exposing the retriever to editor and agent clients. Two
// tools: retrieve_context returns raw passages, retrieve_citations returns
// capped snippets with source labels.
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/rag/embedding"
	"github.com/mapleproto/reportchat/internal/rag/embedding/googleEmbedding"
	"github.com/mapleproto/reportchat/internal/rag/embedding/openaiEmbedding"
	"github.com/mapleproto/reportchat/internal/rag/retriever"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB/qdrantDB"
	"github.com/mapleproto/reportchat/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type retrieveInput struct {
	Query string `json:"query" jsonschema:"the search query to run against the report index"`
}

type retrieveOutput struct {
	Context string `json:"context" jsonschema:"the retrieved passages"`
}

func main() {
	logger_i.Init()
	_ = godotenv.Load()

	ctx := context.Background()

	embedder := buildEmbedder(ctx)
	index := qdrantDB.GetQdrantClient(ctx)
	if embedder == nil || index == nil {
		log.Fatal("external services failed to initialize")
	}
	r := retriever.New(embedder, index, config.RetrieveTopK)

	server := mcp.NewServer(&mcp.Implementation{Name: "reportchat-retriever", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve the most relevant report passages for a query",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in retrieveInput) (*mcp.CallToolResult, retrieveOutput, error) {
		text, err := r.RetrieveContext(ctx, in.Query)
		if err != nil {
			return nil, retrieveOutput{}, err
		}
		return nil, retrieveOutput{Context: text}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "retrieve_citations",
		Description: "Retrieve relevant report passages as capped snippets with source labels",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in retrieveInput) (*mcp.CallToolResult, retrieveOutput, error) {
		text, err := r.RetrieveCitations(ctx, in.Query)
		if err != nil {
			return nil, retrieveOutput{}, err
		}
		return nil, retrieveOutput{Context: text}, nil
	})

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("mcp server stopped: %v", err)
	}
}

func buildEmbedder(ctx context.Context) embedding.Embedder {
	if os.Getenv("LLM_PROVIDER") == "openai" {
		return openaiEmbedding.GetOpenAIEmbeddingClient(config.OpenAIEmbeddingModel, os.Getenv("OPENAI_API_KEY"))
	}
	return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, os.Getenv("GOOGLE_API_KEY"))
}
