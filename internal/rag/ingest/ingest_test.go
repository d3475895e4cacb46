package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/domain/docModel"
)

type fakeEmbedder struct {
	batchSizes []int
	failBatch  bool
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, chunks []string) ([][]float32, error) {
	if f.failBatch {
		return nil, errors.New("embedding quota exceeded")
	}
	f.batchSizes = append(f.batchSizes, len(chunks))
	vectors := make([][]float32, len(chunks))
	for i := range vectors {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimension() int { return 2 }

func (f *fakeEmbedder) ModelID() string { return "fake-model" }

type fakeIndex struct {
	upsertSizes []int
	collections []string
	deleted     []string
	failEnsure  bool
}

func (f *fakeIndex) EnsureCollection(ctx context.Context, name string, dimension uint64) error {
	if f.failEnsure {
		return errors.New("connection refused")
	}
	f.collections = append(f.collections, name)
	return nil
}

func (f *fakeIndex) DeleteCollection(ctx context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeIndex) UpsertBatch(ctx context.Context, name string, chunks []docModel.Chunk, vectors [][]float32) error {
	f.upsertSizes = append(f.upsertSizes, len(chunks))
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, name string, vector []float32, k uint64) ([]docModel.Match, error) {
	return nil, nil
}

func (f *fakeIndex) GetCachedAnswer(ctx context.Context, name string, v []float32) (string, bool, error) {
	return "", false, nil
}

func (f *fakeIndex) SaveToCache(ctx context.Context, name string, id string, v []float32, a string) error {
	return nil
}

func TestSplitTextIntoChunks(t *testing.T) {
	const window, overlap = 1000, 400

	if got := splitTextIntoChunks("", window, overlap); got != nil {
		t.Errorf("empty input should produce no chunks, got %d", len(got))
	}

	short := strings.Repeat("a", 500)
	if got := splitTextIntoChunks(short, window, overlap); len(got) != 1 || got[0] != short {
		t.Errorf("text shorter than window should come back as one chunk")
	}

	// chunk count follows from the window and overlap for any text longer
	// than one window
	for _, length := range []int{1600, 2000, 2500, 5000} {
		text := strings.Repeat("x", length)
		chunks := splitTextIntoChunks(text, window, overlap)
		step := window - overlap
		want := ((length - overlap) + step - 1) / step
		if len(chunks) != want {
			t.Errorf("length %d: got %d chunks, want %d", length, len(chunks), want)
		}
		for i, c := range chunks {
			if len([]rune(c)) > window {
				t.Errorf("length %d: chunk %d exceeds window", length, i)
			}
		}
	}
}

func TestSplitTextIntoChunks_CoversEverything(t *testing.T) {
	const window, overlap = 1000, 400
	step := window - overlap

	var b strings.Builder
	for b.Len() < 2500 {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	text := b.String()

	chunks := splitTextIntoChunks(text, window, overlap)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// consecutive chunks share the overlap region
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		curr := []rune(chunks[i])
		if string(prev[step:min(len(prev), step+overlap)]) != string(curr[:min(len(curr), overlap)]) {
			t.Fatalf("chunks %d and %d do not share the overlap region", i-1, i)
		}
	}

	// stitching the chunks back together reproduces the original text
	rebuilt := []rune(chunks[0])
	for i := 1; i < len(chunks); i++ {
		curr := []rune(chunks[i])
		rebuilt = append(rebuilt, curr[overlap:]...)
	}
	if string(rebuilt) != text {
		t.Error("chunks do not cover the original text")
	}
}

func TestSplitTextIntoChunks_BoundarySpanningFact(t *testing.T) {
	const window, overlap = 1000, 400
	// plant a short fact straddling the first window boundary
	text := strings.Repeat("a", 990) + " NEEDLE-42 " + strings.Repeat("b", 1000)

	found := false
	for _, c := range splitTextIntoChunks(text, window, overlap) {
		if strings.Contains(c, "NEEDLE-42") {
			found = true
		}
	}
	if !found {
		t.Error("fact spanning a window boundary should appear intact in some chunk")
	}
}

func TestSplitTextIntoChunks_Deterministic(t *testing.T) {
	text := strings.Repeat("determinism matters for re-ingestion. ", 100)
	a := splitTextIntoChunks(text, 1000, 400)
	b := splitTextIntoChunks(text, 1000, 400)
	if !reflect.DeepEqual(a, b) {
		t.Error("same input must produce identical chunks")
	}
}

func TestGetDocType(t *testing.T) {
	cases := map[string]docModel.DocType{
		"report.pdf":      docModel.PDF,
		"REPORT.PDF":      docModel.PDF,
		"notes.docx":      docModel.DOCX,
		"notes.rtf":       docModel.DOCX,
		"notes.odt":       docModel.DOCX,
		"plain.txt":       docModel.TXT,
		"image.png":       docModel.ERR,
		"archive.tar.gz":  docModel.ERR,
		"no_extension":    docModel.ERR,
		"dir/report.pdf":  docModel.PDF,
		"spread.xlsx.bak": docModel.ERR,
	}
	for path, want := range cases {
		if got := getDocType(path); got != want {
			t.Errorf("getDocType(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestScrubMetadata(t *testing.T) {
	in := map[string]any{
		"doc_name":    "report.pdf",
		"page_num":    3,
		"score":       0.91,
		"archived":    false,
		"coordinates": map[string]any{"x": 1, "y": 2},
		"languages":   []string{"en", "fr"},
		"raw":         nil,
	}

	out := ScrubMetadata(in)

	want := map[string]any{
		"doc_name": "report.pdf",
		"page_num": 3,
		"score":    0.91,
		"archived": false,
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("ScrubMetadata = %v, want %v", out, want)
	}

	if ScrubMetadata(nil) != nil {
		t.Error("nil metadata should stay nil")
	}
}

func TestPrepareChunks(t *testing.T) {
	doc := docModel.Document{Id: "doc-1", Name: "report.txt", ContentType: docModel.TXT}
	pages := []rawPage{
		{Number: 1, Content: "First page content."},
		{Number: 2, Content: "   "},
		{Number: 3, Content: "Third page content."},
	}

	chunks := PrepareChunks(pages, doc, "fake-model")

	if len(chunks) != 2 {
		t.Fatalf("blank page should be skipped, got %d chunks", len(chunks))
	}
	if chunks[0].PageNum != 1 || chunks[1].PageNum != 3 {
		t.Errorf("page numbers not preserved: %d, %d", chunks[0].PageNum, chunks[1].PageNum)
	}
	for _, c := range chunks {
		if c.EmbeddingModel != "fake-model" {
			t.Errorf("chunk missing embedding model stamp")
		}
		if c.Doc.Name != "report.txt" {
			t.Errorf("chunk not linked to its document")
		}
	}
	if chunks[0].ChunkId == chunks[1].ChunkId {
		t.Error("chunk ids must be unique")
	}
}

func TestPrepareChunks_ScrubsLoaderMetadata(t *testing.T) {
	doc := docModel.Document{Id: "doc-1", Name: "report.pdf", ContentType: docModel.PDF}
	pages := []rawPage{
		{
			Number:  1,
			Content: "Page with loader internals.",
			Metadata: map[string]any{
				"fonts":       []string{"Helvetica", "Times"},
				"coordinates": map[string]any{"x": 10, "y": 20},
				"producer":    "pdflib",
			},
		},
	}

	chunks := PrepareChunks(pages, doc, "fake-model")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}

	metadata := chunks[0].Metadata
	if metadata == nil {
		t.Fatal("chunk carries no metadata payload")
	}
	if _, ok := metadata["fonts"]; ok {
		t.Error("non-scalar loader value survived the scrub")
	}
	if _, ok := metadata["coordinates"]; ok {
		t.Error("nested loader value survived the scrub")
	}
	if metadata["producer"] != "pdflib" {
		t.Errorf("scalar loader value dropped: %v", metadata["producer"])
	}
	if metadata["doc_name"] != "report.pdf" || metadata["chunk_id"] != chunks[0].ChunkId {
		t.Errorf("document payload incomplete: %v", metadata)
	}
	if metadata["page_num"] != 1 || metadata["embedding_model"] != "fake-model" {
		t.Errorf("chunk payload incomplete: %v", metadata)
	}
}

func TestBatchIngest_Batches(t *testing.T) {
	doc := docModel.Document{Id: "doc-1", Name: "report.txt"}
	chunks := make([]docModel.Chunk, config.IngestBatchSize+50)
	for i := range chunks {
		chunks[i] = docModel.Chunk{Doc: doc, Text: "chunk"}
	}

	e := &fakeEmbedder{}
	idx := &fakeIndex{}
	if err := BatchIngest(context.Background(), "coll", chunks, idx, e); err != nil {
		t.Fatalf("BatchIngest failed: %v", err)
	}

	wantSizes := []int{config.IngestBatchSize, 50}
	if !reflect.DeepEqual(e.batchSizes, wantSizes) {
		t.Errorf("embedding batch sizes = %v, want %v", e.batchSizes, wantSizes)
	}
	if !reflect.DeepEqual(idx.upsertSizes, wantSizes) {
		t.Errorf("upsert batch sizes = %v, want %v", idx.upsertSizes, wantSizes)
	}
}

func TestBatchIngest_EmbeddingFailureAborts(t *testing.T) {
	chunks := []docModel.Chunk{{Text: "chunk"}}
	idx := &fakeIndex{}
	err := BatchIngest(context.Background(), "coll", chunks, idx, &fakeEmbedder{failBatch: true})
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if len(idx.upsertSizes) != 0 {
		t.Error("nothing should be upserted after an embedding failure")
	}
}

func TestBuildIndex_NoDocumentsFound(t *testing.T) {
	dir := t.TempDir()
	_, err := BuildIndex(context.Background(), dir, &fakeEmbedder{}, &fakeIndex{}, false)
	if !errors.Is(err, ErrNoDocumentsFound) {
		t.Errorf("empty directory: got %v, want ErrNoDocumentsFound", err)
	}

	// unsupported files only is the same failure
	if err := os.WriteFile(filepath.Join(dir, "readme.md"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = BuildIndex(context.Background(), dir, &fakeEmbedder{}, &fakeIndex{}, false)
	if !errors.Is(err, ErrNoDocumentsFound) {
		t.Errorf("unsupported files only: got %v, want ErrNoDocumentsFound", err)
	}
}

func TestBuildIndex_EmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blank.txt"), []byte("   \n\t  "), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := BuildIndex(context.Background(), dir, &fakeEmbedder{}, &fakeIndex{}, false)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("got %v, want ErrEmptyCorpus", err)
	}
}

func TestBuildIndex_Success(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "report.txt"), []byte("The strategy allocates funding to compute."), 0644); err != nil {
		t.Fatal(err)
	}

	idx := &fakeIndex{}
	count, err := BuildIndex(context.Background(), dir, &fakeEmbedder{}, idx, false)
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d chunks, want 1", count)
	}
	if len(idx.deleted) != 0 {
		t.Error("collection should not be reset without the reset flag")
	}

	// reset recreates the collection before upserting
	idx2 := &fakeIndex{}
	if _, err := BuildIndex(context.Background(), dir, &fakeEmbedder{}, idx2, true); err != nil {
		t.Fatalf("BuildIndex with reset failed: %v", err)
	}
	if len(idx2.deleted) != 1 {
		t.Error("reset should delete the collection first")
	}
}
