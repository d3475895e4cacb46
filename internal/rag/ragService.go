package rag

import (
	"context"
	"errors"
	"time"

	"github.com/mapleproto/reportchat/internal/adapter/utils"
	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/domain/jobModel"
	"github.com/mapleproto/reportchat/internal/metrics"
	"github.com/mapleproto/reportchat/internal/rag/embedding"
	"github.com/mapleproto/reportchat/internal/rag/ingest"
	"github.com/mapleproto/reportchat/internal/rag/llm"
	"github.com/mapleproto/reportchat/internal/rag/retriever"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB"
	"github.com/mapleproto/reportchat/pkg/logger_i"
)

/*
ARCHITECTURE NOTE: OPAQUE INTERFACE PATTERN
---------------------------------------------------------

1. Service (Interface):
  - This is the PUBLIC contract the worker calls.
  - It defines the behavior, not the wiring.

2. service (Private Struct):
  - This is the PRIVATE implementation.
  - It holds the state (index client, LLM client, embedder, retriever).
  - Lowercase so external packages cannot reach the internals directly.

3. Pointer Receiver (*service):
  - Methods on (*service) satisfy the Service interface implicitly.

4. Dependency Injection (NewService):
  - The constructor binds the private struct to the public interface,
    so tests can swap real clients for mocks without touching the worker.
*/

// Service is the only surface the worker sees. A query job runs the two-stage
// pipeline in order: embed, cache check, evidence gathering, synthesis. An
// ingest job runs the document pipeline.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job, messageHistory []string) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
}

type service struct {
	index           vectorDB.Index
	llmProvider     llm.Provider
	embedder        embedding.Embedder
	retriever       *retriever.Retriever
	cacheCollection string
	logger          *logger_i.Logger
}

// NewService constructor
func NewService(index vectorDB.Index, provider llm.Provider, em embedding.Embedder) Service {
	return &service{
		index:       index,
		llmProvider: provider,
		embedder:    em,
		retriever:   retriever.New(em, index, config.RetrieveTopK),
		// the cache holds query embeddings, so it is scoped per model like
		// the chunk index
		cacheCollection: vectorDB.CacheCollectionFor(em.ModelID()),
		logger:          logger_i.NewLogger("RAG Service :"),
	}
}

func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job, messageHistory []string) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", jobt.Id)

	jobt.CurrentStep = jobModel.RAGCall

	// Embedding
	queryVector, err := s.executeEmbeddingStep(ctx, inMethodLogger, &jobt)
	if err != nil {
		return s.jobError(jobt, err, "EMBEDDING_FAILURE", true)
	}

	// Cache Check
	cachedAnswer, found := s.executeCacheCheckStep(ctx, inMethodLogger, &jobt, queryVector)
	if found {
		return returnOutput(jobt, cachedAnswer)
	}

	// Stage 1: Evidence Gathering
	evidence, err := s.executeEvidenceStep(ctx, inMethodLogger, &jobt)
	if err != nil {
		return s.jobError(jobt, err, "EVIDENCE_STAGE_FAILURE", true)
	}
	jobt.JobPayload.Evidence = evidence

	// Stage 2: Synthesis
	answer, err := s.executeSynthesisStep(ctx, inMethodLogger, &jobt, evidence, messageHistory)
	if err != nil {
		return s.jobError(jobt, err, "SYNTHESIS_FAILURE", true)
	}

	// Background Cache Save
	go func() {
		saveCtx, cancel := context.WithTimeout(context.Background(), config.StageTimeout)
		defer cancel()
		if err := s.index.SaveToCache(saveCtx, s.cacheCollection, utils.GetNewUUID(), queryVector, answer); err != nil {
			s.logger.Error("Failed to save to cache")
		}
	}()

	return returnOutput(jobt, answer)
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("Document_ingestion", time.Since(start)) }()
	j := ingest.ProcessDocumentIngestion(ctx, job, s.embedder, s.index)
	if j.Status != jobModel.JobStatusComplete {
		return s.jobError(j, errors.New("ingest Document Failed"), "INGESTION_FAILURE", true)
	}
	return j
}
