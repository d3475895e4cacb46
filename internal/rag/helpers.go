package rag

import (
	"context"
	"net/http"
	"time"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/domain/docModel"
	"github.com/mapleproto/reportchat/internal/domain/jobModel"
	"github.com/mapleproto/reportchat/internal/metrics"
	"github.com/mapleproto/reportchat/internal/rag/agent"
	"github.com/mapleproto/reportchat/internal/rag/pipeline"
	"github.com/mapleproto/reportchat/internal/rag/retriever"
	"github.com/mapleproto/reportchat/pkg/logger_i"
)

func returnOutput(job jobModel.Job, ans string) jobModel.Job {
	job.JobPayload.Answer = ans
	job.CurrentStep = jobModel.Complete
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("ProcessRequest", "Current Status", job.CurrentStep)
	return job
}

// jobError converts any internal failure into a displayable job error. The
// raw error is logged, never shown to the caller.
func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "error", err)

	job.Error = jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Message: "Internal Server Error",
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	return job
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job) ([]float32, error) {
	*job = logOutput(*job, jobModel.EmbeddingAPICall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	stepCtx, cancel := context.WithTimeout(ctx, config.StageTimeout)
	defer cancel()

	return s.embedder.EmbedQuery(stepCtx, job.JobPayload.Question)
}

func (s *service) executeCacheCheckStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, emb []float32) (string, bool) {
	*job = logOutput(*job, jobModel.CacheCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	ans, found, _ := s.index.GetCachedAnswer(ctx, s.cacheCollection, emb)
	return ans, found
}

// executeEvidenceStep runs the first pipeline stage. The single retrieval the
// gatherer is allowed goes through a tool closure that also records which
// documents the matches came from, so the final job carries its sources.
func (s *service) executeEvidenceStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job) (string, error) {
	*job = logOutput(*job, jobModel.EvidenceCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("evidence_gathering", time.Since(start)) }()

	stepCtx, cancel := context.WithTimeout(ctx, config.StageTimeout)
	defer cancel()

	tool := &agent.Tool{
		Name: "retrieve_context",
		Run: func(toolCtx context.Context, query string) (string, error) {
			matches, err := s.retriever.Retrieve(toolCtx, query)
			if err != nil {
				return "", err
			}
			job.JobPayload.Sources = sourceLabels(matches)
			return retriever.FormatContext(matches), nil
		},
	}

	result, err := agent.NewGatherer(s.llmProvider, tool).Run(stepCtx, job.JobPayload.Question)
	if err != nil {
		return "", err
	}
	return result.Evidence, nil
}

func (s *service) executeSynthesisStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, evidence string, history []string) (string, error) {
	*job = logOutput(*job, jobModel.SynthesisCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("synthesis", time.Since(start)) }()

	stepCtx, cancel := context.WithTimeout(ctx, config.StageTimeout)
	defer cancel()

	domain := job.JobPayload.Domain
	if domain == "" {
		domain = pipeline.DomainGeneral
	}
	return pipeline.Synthesize(stepCtx, s.llmProvider, job.JobPayload.Question, domain, evidence, history)
}

func sourceLabels(matches []docModel.Match) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, m := range matches {
		label := m.Title()
		if link := m.Link(); link != "" {
			label = label + " (" + link + ")"
		}
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	return labels
}
