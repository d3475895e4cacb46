package rag_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/domain/docModel"
	"github.com/mapleproto/reportchat/internal/domain/jobModel"
	"github.com/mapleproto/reportchat/internal/rag"
	"github.com/mapleproto/reportchat/internal/rag/pipeline"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB"
)

const toolCallTurn = "Thought: I should look this up.\n" +
	"Action: retrieve_context\n" +
	"Action Input: {\"query\": \"compute funding\"}"

func TestProcessRequest_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, idx *MockIndex, l *MockLLM)
		domain         string
		expectedStep   jobModel.InternalStatus
		expectedStatus jobModel.JobStatus
		expectedAnswer string
		expectLLMCalls int
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				l.Script = []string{
					toolCallTurn,
					"Final Answer: The report allocates two billion dollars to compute.",
					"The report allocates two billion dollars to compute.\n\n**Compute receives the largest share.**",
				}
			},
			domain:         pipeline.DomainPolicy,
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusRunning,
			expectedAnswer: "The report allocates two billion dollars to compute.\n\n**Compute receives the largest share.**",
			expectLLMCalls: 3,
		},
		{
			name: "Success_Cache_Hit",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				idx.OnGetCachedAnswer = func(ctx context.Context, name string, emb []float32) (string, bool, error) {
					return "cached answer", true, nil
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusRunning,
			expectedAnswer: "cached answer",
			expectLLMCalls: 0,
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				e.OnEmbedQuery = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Failure_Evidence_Completion",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				l.OnComplete = func(call int, system, prompt string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Retrieval_Failure_Is_Not_Fatal",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				idx.OnQuery = func(ctx context.Context, name string, v []float32, k uint64) ([]docModel.Match, error) {
					return nil, errors.New("db timeout")
				}
				l.Script = []string{
					toolCallTurn,
					"Final Answer: Retrieval failed, so I could not gather evidence.",
					"I could not retrieve supporting passages for this question.\n\n**No evidence was available.**",
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusRunning,
			expectedAnswer: "I could not retrieve supporting passages for this question.\n\n**No evidence was available.**",
			expectLLMCalls: 3,
		},
		{
			name: "Failure_Synthesis",
			setupMocks: func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {
				l.OnComplete = func(call int, system, prompt string) (string, error) {
					if call == 3 {
						return "", errors.New("provider down")
					}
					if call == 1 {
						return toolCallTurn, nil
					}
					return "Final Answer: some evidence.", nil
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name:           "Failure_Unknown_Domain",
			setupMocks:     func(e *MockEmbedder, idx *MockIndex, l *MockLLM) {},
			domain:         "finance",
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mIdx := &MockIndex{}
			mLLM := &MockLLM{}

			tt.setupMocks(mEmbed, mIdx, mLLM)

			s := rag.NewService(mIdx, mLLM, mEmbed)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:     "test-job",
				Status: jobModel.JobStatusRunning,
				JobPayload: jobModel.JobPayload{
					Question: "How much compute funding does the report allocate?",
					Domain:   tt.domain,
				},
			}

			result := s.ProcessRequest(ctx, job, []string{})

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}

			if tt.expectedStep != "" && result.CurrentStep != tt.expectedStep {
				t.Errorf("Step got %v, want %v", result.CurrentStep, tt.expectedStep)
			}

			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %q, want %q", result.JobPayload.Answer, tt.expectedAnswer)
			}

			if tt.expectedStatus == jobModel.JobStatusError && result.Error.Code != http.StatusInternalServerError {
				t.Errorf("Error Code got %d, want %d", result.Error.Code, http.StatusInternalServerError)
			}

			if tt.expectLLMCalls > 0 && mLLM.Calls() != tt.expectLLMCalls {
				t.Errorf("LLM calls got %d, want %d", mLLM.Calls(), tt.expectLLMCalls)
			}
		})
	}
}

func TestProcessRequest_RecordsEvidenceAndSources(t *testing.T) {
	mIdx := &MockIndex{
		OnQuery: func(ctx context.Context, name string, v []float32, k uint64) ([]docModel.Match, error) {
			return []docModel.Match{
				{Text: "Compute funding totals two billion dollars.", Score: 0.95,
					Metadata: map[string]any{"doc_name": "maple_report.pdf"}},
				{Text: "Talent programs receive the remainder.", Score: 0.80,
					Metadata: map[string]any{"doc_name": "maple_report.pdf"}},
			}, nil
		},
	}
	mLLM := &MockLLM{Script: []string{
		toolCallTurn,
		"Final Answer: Compute funding totals two billion dollars.",
		"The report commits two billion dollars to compute.\n\n**Compute dominates the budget.**",
	}}

	s := rag.NewService(mIdx, mLLM, &MockEmbedder{})
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	job := jobModel.Job{
		Id:     "test-job",
		Status: jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{
			Question: "How much compute funding?",
			Domain:   pipeline.DomainResearch,
		},
	}

	result := s.ProcessRequest(ctx, job, nil)

	if result.Status == jobModel.JobStatusError {
		t.Fatalf("unexpected job error: %+v", result.Error)
	}
	if !strings.Contains(result.JobPayload.Evidence, "two billion dollars") {
		t.Errorf("evidence not recorded on job, got %q", result.JobPayload.Evidence)
	}
	if len(result.JobPayload.Sources) != 1 || !strings.Contains(result.JobPayload.Sources[0], "maple_report.pdf") {
		t.Errorf("expected a single deduplicated source, got %v", result.JobPayload.Sources)
	}
}

func TestProcessRequest_CacheIsModelScoped(t *testing.T) {
	wantCollection := vectorDB.CacheCollectionFor("mock-model")

	var lookupCollection string
	savedCollection := make(chan string, 1)
	mIdx := &MockIndex{
		OnGetCachedAnswer: func(ctx context.Context, name string, emb []float32) (string, bool, error) {
			lookupCollection = name
			return "", false, nil
		},
		OnSaveToCache: func(ctx context.Context, name string, id string, v []float32, a string) error {
			savedCollection <- name
			return nil
		},
	}
	mLLM := &MockLLM{Script: []string{
		toolCallTurn,
		"Final Answer: Compute funding totals two billion dollars.",
		"The report commits two billion dollars to compute.\n\n**Compute dominates the budget.**",
	}}

	s := rag.NewService(mIdx, mLLM, &MockEmbedder{})
	job := jobModel.Job{
		Id:         "test-job",
		Status:     jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{Question: "How much compute funding?"},
	}

	result := s.ProcessRequest(context.Background(), job, nil)
	if result.Status == jobModel.JobStatusError {
		t.Fatalf("unexpected job error: %+v", result.Error)
	}

	if lookupCollection != wantCollection {
		t.Errorf("cache lookup hit collection %q, want %q", lookupCollection, wantCollection)
	}
	select {
	case name := <-savedCollection:
		if name != wantCollection {
			t.Errorf("cache save hit collection %q, want %q", name, wantCollection)
		}
	case <-time.After(2 * time.Second):
		t.Error("answer was never saved to the cache")
	}
}

func TestIngestDocument_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, idx *MockIndex)
		expectedStatus jobModel.JobStatus
	}{
		{
			name:           "Ingestion_Success",
			setupMocks:     func(e *MockEmbedder, idx *MockIndex) {},
			expectedStatus: jobModel.JobStatusComplete,
		},
		{
			name: "Failure_Collection_Creation",
			setupMocks: func(e *MockEmbedder, idx *MockIndex) {
				idx.OnEnsureCollection = func(ctx context.Context, name string, dim uint64) error {
					return errors.New("connection refused")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
		{
			name: "Failure_Batch_Upsert",
			setupMocks: func(e *MockEmbedder, idx *MockIndex) {
				idx.OnUpsertBatch = func(ctx context.Context, name string, chunks []docModel.Chunk, vectors [][]float32) error {
					return errors.New("disk full")
				}
			},
			expectedStatus: jobModel.JobStatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummyFile := t.TempDir() + "/test_ingest.txt"
			if err := os.WriteFile(dummyFile, []byte("test content for ingestion"), 0644); err != nil {
				t.Fatal(err)
			}

			mEmbed := &MockEmbedder{}
			mIdx := &MockIndex{}
			tt.setupMocks(mEmbed, mIdx)

			s := rag.NewService(mIdx, &MockLLM{}, mEmbed)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "ingest-trace")
			job := jobModel.Job{
				Id: "ingest-job-1",
				JobPayload: jobModel.JobPayload{
					IngestFileName: "test_ingest.txt",
					IngestURL:      dummyFile,
				},
			}

			result := s.IngestDocument(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
		})
	}
}
