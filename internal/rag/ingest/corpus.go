package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mapleproto/reportchat/internal/adapter/utils"
	"github.com/mapleproto/reportchat/internal/domain/docModel"
	"github.com/mapleproto/reportchat/internal/rag/embedding"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB"
)

var (
	ErrNoDocumentsFound = errors.New("no source documents found")
	ErrEmptyCorpus      = errors.New("no text extracted from any document")
)

// BuildIndex is the offline batch entry: enumerate the source directory,
// load, chunk, embed and upsert everything. Any failure aborts the whole run;
// there is no partial commit to report to readers. Repeated runs append - use
// reset to recreate the collection first.
func BuildIndex(ctx context.Context, sourceDir string, e embedding.Embedder, index vectorDB.Index, reset bool) (int, error) {
	log := logger.With("sourceDir", sourceDir)

	paths, err := enumerateDocuments(sourceDir)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("%w in %s", ErrNoDocumentsFound, sourceDir)
	}
	log.Info("Starting ingestion run", "documents", len(paths))

	collectionName := vectorDB.CollectionFor(e.ModelID())
	if reset {
		log.Info("Resetting collection", "collection", collectionName)
		if err := index.DeleteCollection(ctx, collectionName); err != nil {
			return 0, fmt.Errorf("resetting collection: %w", err)
		}
	}
	if err := index.EnsureCollection(ctx, collectionName, uint64(e.Dimension())); err != nil {
		return 0, fmt.Errorf("ensuring collection: %w", err)
	}

	var allChunks []docModel.Chunk
	for _, path := range paths {
		docType := getDocType(path)
		if docType == docModel.ERR {
			log.Debug("Skipping unsupported file", "path", path)
			continue
		}

		log.Info("Loading document", "path", path)
		pages, err := extractText(path, docType)
		if err != nil {
			return 0, fmt.Errorf("loading %s: %w", path, err)
		}

		doc := docModel.Document{
			Id:                  utils.GetNewUUID(),
			Name:                filepath.Base(path),
			LastIngestTimestamp: time.Now(),
			ContentType:         docType,
		}
		allChunks = append(allChunks, PrepareChunks(pages, doc, e.ModelID())...)
	}

	if len(allChunks) == 0 {
		return 0, ErrEmptyCorpus
	}

	log.Info("Embedding and upserting", "chunks", len(allChunks), "collection", collectionName)
	if err := BatchIngest(ctx, collectionName, allChunks, index, e); err != nil {
		return 0, err
	}

	return len(allChunks), nil
}

func enumerateDocuments(sourceDir string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(sourceDir, entry.Name())
		if getDocType(path) != docModel.ERR {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
