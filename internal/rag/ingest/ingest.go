package ingest

import (
	"context"
	"os"
	"time"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/domain/docModel"
	"github.com/mapleproto/reportchat/internal/domain/jobModel"
	"github.com/mapleproto/reportchat/internal/rag/embedding"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB"
	"github.com/mapleproto/reportchat/pkg/logger_i"
)

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`

	// loader internals (fonts, coordinates); scrubbed before indexing
	Metadata map[string]any `json:"-"`
}

var logger = logger_i.NewLogger("Document Ingestion")

// ProcessDocumentIngestion handles one uploaded document arriving through the
// job queue. The offline batch path (cmd/ingest) goes through BuildIndex.
func ProcessDocumentIngestion(ctx context.Context, job jobModel.Job, e embedding.Embedder, index vectorDB.Index) jobModel.Job {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	docName := job.JobPayload.IngestFileName
	docPath := job.JobPayload.IngestURL

	log.Debug("Processing document", "filename", docName, "path", docPath)

	job.CurrentStep = jobModel.IngestProcessing
	collectionName := vectorDB.CollectionFor(e.ModelID())
	err := index.EnsureCollection(ctx, collectionName, uint64(e.Dimension()))
	if err != nil {
		log.Error("Error ensuring collection", "error", err)
		job.Status = jobModel.JobStatusError
		return job
	}

	docType := getDocType(docPath)
	if docType == docModel.ERR {
		log.Error("Unsupported document type", "path", docPath)
		job.Status = jobModel.JobStatusError
		return job
	}

	doc := docModel.Document{
		Id:                  job.Id,
		Name:                docName,
		LastIngestTimestamp: time.Now(),
		ContentType:         docType,
	}

	rawPages, err := extractText(docPath, doc.ContentType)
	if err != nil {
		log.Error("Error processing document", "error", err)
		job.Status = jobModel.JobStatusError
		job.Error.Message = "Error extracting document content"
		return job
	}

	log.Debug("Processing document", "raw pages", len(rawPages))
	chunks := PrepareChunks(rawPages, doc, e.ModelID())

	log.Debug("Processing document", "chunks", len(chunks))
	err = BatchIngest(ctx, collectionName, chunks, index, e)
	if err != nil {
		job.Status = jobModel.JobStatusError
		log.Error("Error processing document", "error", err)
		return job
	}

	err = os.Remove(docPath)
	if err != nil {
		log.Error("Error removing file", "error", err)
	}
	job.Status = jobModel.JobStatusComplete
	return job
}
