package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mapleproto/reportchat/internal/adapter/utils"
	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/domain/docModel"
	"github.com/mapleproto/reportchat/internal/rag/embedding"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB"
)

//splitter

// splitTextIntoChunks slides a fixed window across the text with the given
// overlap. The overlap is sized so a fact spanning a window boundary still
// appears intact in at least one chunk. Deterministic: same text in, same
// chunks out.
func splitTextIntoChunks(text string, window int, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= window {
		return []string{text}
	}
	if overlap >= window {
		overlap = window / 2
	}

	step := window - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + window
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func getDocType(docPath string) docModel.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return docModel.PDF
	case ".docx", ".rtf", ".odt":
		return docModel.DOCX
	case ".txt":
		return docModel.TXT
	default:
		return docModel.ERR
	}
}

func extractText(path string, contentType docModel.DocType) ([]rawPage, error) {
	switch contentType {
	case docModel.PDF:
		return extractPDF(path)
	case docModel.DOCX, docModel.TXT:
		return extractDocxTxtRtf(path)

	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

// PrepareChunks splits page by page so a chunk never crosses a document (or
// page) boundary, and stamps every chunk with the embedding model that will
// vectorize it. Document and loader metadata pass through ScrubMetadata, so
// only scalar payloads ever reach the index.
func PrepareChunks(pages []rawPage, doc docModel.Document, embeddingModel string) []docModel.Chunk {
	var allChunks []docModel.Chunk

	for _, page := range pages {
		stringChunks := splitTextIntoChunks(page.Content, config.ChunkWindow, config.ChunkOverlap)

		for i, text := range stringChunks {
			if strings.TrimSpace(text) == "" {
				continue
			}
			chunkId := utils.GetNewUUID()

			metadata := map[string]any{
				"doc_name":        doc.Name,
				"source_doc_id":   doc.Id,
				"link":            doc.Link,
				"ingested_at":     doc.LastIngestTimestamp.Unix(),
				"page_num":        page.Number,
				"chunk_order":     i,
				"chunk_id":        chunkId,
				"embedding_model": embeddingModel,
			}
			for key, value := range page.Metadata {
				metadata[key] = value
			}

			allChunks = append(allChunks, docModel.Chunk{
				Doc:            doc,
				ChunkId:        chunkId,
				Text:           text,
				PageNum:        page.Number,
				ChunkPageOrder: i,
				EmbeddingModel: embeddingModel,
				Metadata:       ScrubMetadata(metadata),
			})
		}
	}

	return allChunks
}

func BatchIngest(ctx context.Context, collectionName string, chunks []docModel.Chunk, index vectorDB.Index, embedder embedding.Embedder) error {
	batchSize := config.IngestBatchSize

	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		currentBatch := chunks[i:end]

		texts := make([]string, 0, len(currentBatch))
		for _, c := range currentBatch {
			texts = append(texts, c.Text)
		}

		logger.Debug("Starting embedding call", "current batch length", len(currentBatch))
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}

		err = index.UpsertBatch(ctx, collectionName, currentBatch, vectors)
		if err != nil {
			return fmt.Errorf("upserting batch failed: %w", err)
		}
	}

	return nil
}
