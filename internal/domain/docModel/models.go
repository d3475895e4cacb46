package docModel

import "time"

type Document struct {
	Id                  string    `json:"source_doc_id"`
	Name                string    `json:"doc_name"`
	Link                string    `json:"link,omitempty"`
	LastIngestTimestamp time.Time `json:"ingested_at"`
	ContentType         DocType   `json:"contentType"`
}

// Chunk is one bounded slice of a source document. It is created during
// ingestion and never updated in place - re-ingestion produces new chunks.
type Chunk struct {
	Doc            Document
	ChunkId        string `json:"chunk_id"`
	Text           string `json:"content"`
	PageNum        int    `json:"page_num"`
	ChunkPageOrder int    `json:"chunk_order"`
	EmbeddingModel string `json:"embedding_model"`

	// scalar-only index payload, assembled and scrubbed at ingestion
	Metadata map[string]any
}

// Match is one retrieval hit, ranked by descending similarity.
type Match struct {
	Text     string
	Score    float32
	Metadata map[string]any
}

// Title returns a human-readable source label for citations.
func (m Match) Title() string {
	if t, ok := m.Metadata["doc_name"].(string); ok && t != "" {
		return t
	}
	if s, ok := m.Metadata["source_doc_id"].(string); ok {
		return s
	}
	return ""
}

func (m Match) Link() string {
	if l, ok := m.Metadata["link"].(string); ok {
		return l
	}
	return ""
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
