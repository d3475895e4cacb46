package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/domain/docModel"
	"github.com/mapleproto/reportchat/internal/rag/embedding"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB"
	"github.com/mapleproto/reportchat/pkg/logger_i"
)

// Retriever embeds a query and pulls the top-k nearest chunks out of the
// index. Every call re-embeds and re-queries; nothing is cached here.
type Retriever struct {
	embedder       embedding.Embedder
	index          vectorDB.Index
	collectionName string
	topK           uint64
	logger         *logger_i.Logger
}

func New(e embedding.Embedder, index vectorDB.Index, topK uint64) *Retriever {
	if topK == 0 {
		topK = config.RetrieveTopK
	}
	return &Retriever{
		embedder:       e,
		index:          index,
		collectionName: vectorDB.CollectionFor(e.ModelID()),
		topK:           topK,
		logger:         logger_i.NewLogger("Retriever"),
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]docModel.Match, error) {
	log := r.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Error("query embedding failed", "error", err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := r.index.Query(ctx, r.collectionName, vector, r.topK)
	if err != nil {
		log.Error("index query failed", "error", err)
		return nil, fmt.Errorf("querying index: %w", err)
	}
	log.Debug("retrieved", "matches", len(matches))
	return matches, nil
}

// RetrieveContext returns the top-k passages as one newline-separated block -
// the observation string the evidence-gathering stage consumes.
func (r *Retriever) RetrieveContext(ctx context.Context, query string) (string, error) {
	matches, err := r.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	return FormatContext(matches), nil
}

// RetrieveCitations is the citation-formatted variant: capped snippets with
// an explicit truncation marker plus a source label and optional link.
func (r *Retriever) RetrieveCitations(ctx context.Context, query string) (string, error) {
	matches, err := r.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	return FormatCitations(matches), nil
}

func FormatContext(matches []docModel.Match) string {
	var parts []string
	for _, m := range matches {
		if text := strings.TrimSpace(m.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func FormatCitations(matches []docModel.Match) string {
	var lines []string
	for _, m := range matches {
		snippet := strings.TrimSpace(m.Text)
		// the cap counts runes so the cut can never split a multi-byte
		// character
		if runes := []rune(snippet); len(runes) > config.SnippetMaxLen {
			snippet = string(runes[:config.SnippetMaxLen]) + config.TruncationMarker
		}
		lines = append(lines, fmt.Sprintf("- %s\n  [Source: %s](%s)", snippet, m.Title(), m.Link()))
	}
	return strings.Join(lines, "\n")
}
