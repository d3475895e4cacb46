package rag_test

import (
	"context"
	"sync"

	"github.com/mapleproto/reportchat/internal/domain/docModel"
)

// MockIndex implements vectorDB.Index
type MockIndex struct {
	// Control fields to simulate different behaviors
	OnEnsureCollection func(ctx context.Context, name string, dimension uint64) error
	OnDeleteCollection func(ctx context.Context, name string) error
	OnUpsertBatch      func(ctx context.Context, name string, chunks []docModel.Chunk, vectors [][]float32) error
	OnQuery            func(ctx context.Context, name string, vector []float32, k uint64) ([]docModel.Match, error)
	OnGetCachedAnswer  func(ctx context.Context, name string, queryVector []float32) (string, bool, error)
	OnSaveToCache      func(ctx context.Context, name string, id string, vector []float32, answer string) error
}

func (m *MockIndex) EnsureCollection(ctx context.Context, name string, dimension uint64) error {
	if m.OnEnsureCollection != nil {
		return m.OnEnsureCollection(ctx, name, dimension)
	}
	return nil
}

func (m *MockIndex) DeleteCollection(ctx context.Context, name string) error {
	if m.OnDeleteCollection != nil {
		return m.OnDeleteCollection(ctx, name)
	}
	return nil
}

func (m *MockIndex) UpsertBatch(ctx context.Context, name string, chunks []docModel.Chunk, vectors [][]float32) error {
	if m.OnUpsertBatch != nil {
		return m.OnUpsertBatch(ctx, name, chunks, vectors)
	}
	return nil
}

func (m *MockIndex) Query(ctx context.Context, name string, vector []float32, k uint64) ([]docModel.Match, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, name, vector, k)
	}
	return []docModel.Match{
		{Text: "default context", Score: 0.9, Metadata: map[string]any{"doc_name": "report.pdf"}},
	}, nil
}

func (m *MockIndex) GetCachedAnswer(ctx context.Context, name string, v []float32) (string, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, name, v)
	}
	return "", false, nil
}

func (m *MockIndex) SaveToCache(ctx context.Context, name string, id string, v []float32, a string) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, name, id, v, a)
	}
	return nil
}

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	OnEmbedQuery func(ctx context.Context, query string) ([]float32, error)
	OnEmbedBatch func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, query)
	}
	return []float32{1, 0, 0, 0}, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.OnEmbedBatch != nil {
		return m.OnEmbedBatch(ctx, chunks)
	}
	vectors := make([][]float32, len(chunks))
	for i := range vectors {
		vectors[i] = []float32{1, 0, 0, 0}
	}
	return vectors, nil
}

func (m *MockEmbedder) Dimension() int { return 4 }

func (m *MockEmbedder) ModelID() string { return "mock-model" }

// MockLLM implements llm.Provider. Completions are consumed from Script in
// order; OnComplete overrides everything when set. The pipeline calls the
// provider three times on the happy path: tool decision, evidence summary,
// synthesis.
type MockLLM struct {
	mu         sync.Mutex
	calls      int
	Script     []string
	OnComplete func(call int, systemInstruction string, prompt string) (string, error)
}

func (m *MockLLM) Complete(ctx context.Context, systemInstruction string, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()

	if m.OnComplete != nil {
		return m.OnComplete(call, systemInstruction, prompt)
	}
	if call <= len(m.Script) {
		return m.Script[call-1], nil
	}
	return "mocked llm response", nil
}

func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
