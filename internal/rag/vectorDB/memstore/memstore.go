package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/domain/docModel"
)

// Store is a brute-force cosine index held in process memory. It backs the
// -index=memory dev mode and the end-to-end tests; durable serving goes
// through Qdrant.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	// answer cache entries, keyed by the model-scoped cache collection name
	cache map[string][]cacheEntry
}

type collection struct {
	dimension uint64
	entries   []entry
}

type entry struct {
	chunk  docModel.Chunk
	vector []float32
}

type cacheEntry struct {
	vector []float32
	answer string
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]*collection),
		cache:       make(map[string][]cacheEntry),
	}
}

func (s *Store) EnsureCollection(ctx context.Context, collectionName string, dimension uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.collections[collectionName]
	if ok {
		if dimension != 0 && existing.dimension != 0 && existing.dimension != dimension {
			return fmt.Errorf("collection %s has dimension %d, embedder produces %d", collectionName, existing.dimension, dimension)
		}
		return nil
	}
	s.collections[collectionName] = &collection{dimension: dimension}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, collectionName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collectionName)
	return nil
}

func (s *Store) UpsertBatch(ctx context.Context, collectionName string, chunks []docModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[collectionName]
	if !ok {
		coll = &collection{}
		s.collections[collectionName] = coll
	}
	for i := range chunks {
		// append-only: re-ingestion accumulates duplicates, same as Qdrant
		// with fresh chunk ids
		coll.entries = append(coll.entries, entry{chunk: chunks[i], vector: vectors[i]})
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collectionName string, vector []float32, k uint64) ([]docModel.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collectionName]
	if !ok {
		return nil, nil
	}

	matches := make([]docModel.Match, 0, len(coll.entries))
	for _, e := range coll.entries {
		metadata := map[string]any{
			"doc_name":      e.chunk.Doc.Name,
			"source_doc_id": e.chunk.Doc.Id,
			"link":          e.chunk.Doc.Link,
			"page_num":      e.chunk.PageNum,
			"chunk_order":   e.chunk.ChunkPageOrder,
			"chunk_id":      e.chunk.ChunkId,
		}
		for key, value := range e.chunk.Metadata {
			metadata[key] = value
		}
		matches = append(matches, docModel.Match{
			Text:     e.chunk.Text,
			Score:    dot(e.vector, vector),
			Metadata: metadata,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if uint64(len(matches)) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *Store) GetCachedAnswer(ctx context.Context, collectionName string, queryVector []float32) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.cache[collectionName]
	best := -1
	var bestScore float32
	for i, c := range entries {
		if score := dot(c.vector, queryVector); best == -1 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if best == -1 || bestScore < config.CacheSimilarityCutoff {
		return "", false, nil
	}
	return entries[best].answer, true, nil
}

func (s *Store) SaveToCache(ctx context.Context, collectionName string, id string, vector []float32, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[collectionName] = append(s.cache[collectionName], cacheEntry{vector: vector, answer: answer})
	return nil
}

// vectors are L2-normalized by the embedder, so the dot product is the
// cosine similarity
func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
