package pipeline

import (
	"context"
	"errors"
	"testing"

	"propertyrag/internal/models"
	"propertyrag/internal/rag/schema"
	"propertyrag/pkg/logger"
)

func parsedFixture() *schema.ParsedDocument {
	return &schema.ParsedDocument{
		Filename: "mietvertrag.pdf",
		Pages: []schema.Page{
			{PageNumber: 1, Text: "§ 1 Mietobjekt"},
			{PageNumber: 2, Text: "§ 2 Miete"},
		},
		PageCount: 2,
	}
}

func chunkFixture() []schema.TextChunk {
	return []schema.TextChunk{
		{Content: "§ 1 Mietobjekt", PageNumber: intPtr(1), ChunkIndex: 0, TokenCount: 3},
		{Content: "§ 2 Miete", PageNumber: intPtr(2), ChunkIndex: 1, TokenCount: 3},
	}
}

type ingestionFixture struct {
	parser     *fakeParser
	splitter   *fakeSplitter
	embedder   *fakeEmbedder
	classifier *fakeClassifier
	extractor  *fakeExtractor
	docs       *memDocuments
	chunks     *memChunks
	extracted  *memExtracted
	vectors    *memVectors
	events     *fakeEvents
	pipeline   *IngestionPipeline
}

func newIngestionFixture() *ingestionFixture {
	f := &ingestionFixture{
		parser:     &fakeParser{doc: parsedFixture()},
		splitter:   &fakeSplitter{chunks: chunkFixture()},
		embedder:   &fakeEmbedder{},
		classifier: &fakeClassifier{docType: models.DocumentTypeMietvertrag},
		extractor:  &fakeExtractor{record: map[string]interface{}{"kaution_eur": 4350.0}, confidence: 0.6},
		docs:       newMemDocuments(),
		chunks:     &memChunks{},
		extracted:  newMemExtracted(),
		vectors:    &memVectors{},
		events:     &fakeEvents{},
	}
	f.pipeline = NewIngestionPipeline(IngestionDeps{
		Parser:     f.parser,
		Splitter:   f.splitter,
		Embedder:   f.embedder,
		Classifier: f.classifier,
		Extractor:  f.extractor,
		Documents:  f.docs,
		Chunks:     f.chunks,
		Extracted:  f.extracted,
		Vectors:    f.vectors,
		Events:     f.events,
	}, logger.New("ingestion-test"))
	return f
}

func TestIngestCompletesAndPersists(t *testing.T) {
	f := newIngestionFixture()
	projectID := "project-1"

	id, err := f.pipeline.Ingest(context.Background(), []byte("%PDF"), "mietvertrag.pdf", IngestionOptions{
		ProjectID:   &projectID,
		AutoExtract: true,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	doc := f.docs.mustGet(id)
	if doc.Status != models.StatusCompleted {
		t.Errorf("Status = %s, want completed", doc.Status)
	}
	if doc.PageCount == nil || *doc.PageCount != 2 {
		t.Errorf("PageCount = %v, want 2", doc.PageCount)
	}
	if doc.DocumentType != models.DocumentTypeMietvertrag {
		t.Errorf("DocumentType = %s, want mietvertrag (classified)", doc.DocumentType)
	}

	if len(f.chunks.rows) != 2 {
		t.Fatalf("persisted %d chunk rows, want 2", len(f.chunks.rows))
	}
	if len(f.vectors.entries) != 2 {
		t.Fatalf("persisted %d vector entries, want 2", len(f.vectors.entries))
	}
	// Chunk rows and vector entries must share IDs pairwise.
	for i, row := range f.chunks.rows {
		entry := f.vectors.entries[i]
		if row.ID != entry.ChunkID {
			t.Errorf("chunk %d: row ID %s != vector chunk ID %s", i, row.ID, entry.ChunkID)
		}
		if entry.ProjectID != projectID {
			t.Errorf("chunk %d: vector project ID = %s, want %s", i, entry.ProjectID, projectID)
		}
		if entry.DocumentID != id {
			t.Errorf("chunk %d: vector document ID = %s, want %s", i, entry.DocumentID, id)
		}
	}

	if _, err := f.extracted.GetByDocument(context.Background(), id); err != nil {
		t.Errorf("expected extracted record, got error %v", err)
	}

	last := f.events.events[len(f.events.events)-1]
	if last.status != models.StatusCompleted {
		t.Errorf("last event status = %s, want completed", last.status)
	}
}

func TestIngestKnownTypeSkipsClassification(t *testing.T) {
	f := newIngestionFixture()

	_, err := f.pipeline.Ingest(context.Background(), []byte("%PDF"), "gutachten.pdf", IngestionOptions{
		DocumentType: models.DocumentTypeGutachten,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if f.classifier.calls != 0 {
		t.Errorf("classifier called %d times for a known type, want 0", f.classifier.calls)
	}
}

func TestIngestParseFailure(t *testing.T) {
	f := newIngestionFixture()
	f.parser.err = errors.New("corrupt xref table")

	id, err := f.pipeline.Ingest(context.Background(), []byte("junk"), "broken.pdf", IngestionOptions{})
	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("expected *IngestionError, got %v", err)
	}
	if ingErr.Stage != StageParse {
		t.Errorf("Stage = %s, want parse", ingErr.Stage)
	}
	if doc := f.docs.mustGet(id); doc.Status != models.StatusFailed {
		t.Errorf("Status = %s, want failed", doc.Status)
	}
}

func TestIngestClassificationFailureIsFatal(t *testing.T) {
	f := newIngestionFixture()
	f.classifier.err = errors.New("model unavailable")

	id, err := f.pipeline.Ingest(context.Background(), []byte("%PDF"), "a.pdf", IngestionOptions{})
	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("expected *IngestionError, got %v", err)
	}
	if ingErr.Stage != StageClassify {
		t.Errorf("Stage = %s, want classify", ingErr.Stage)
	}
	if doc := f.docs.mustGet(id); doc.Status != models.StatusFailed {
		t.Errorf("Status = %s, want failed", doc.Status)
	}
}

func TestIngestEmbeddingFailureIsFatal(t *testing.T) {
	f := newIngestionFixture()
	f.embedder.err = errors.New("rate limited")

	id, err := f.pipeline.Ingest(context.Background(), []byte("%PDF"), "a.pdf", IngestionOptions{})
	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("expected *IngestionError, got %v", err)
	}
	if ingErr.Stage != StageEmbed {
		t.Errorf("Stage = %s, want embed", ingErr.Stage)
	}
	if doc := f.docs.mustGet(id); doc.Status != models.StatusFailed {
		t.Errorf("Status = %s, want failed", doc.Status)
	}
	if len(f.chunks.rows) != 0 {
		t.Errorf("persisted %d chunk rows after embed failure, want 0", len(f.chunks.rows))
	}
}

func TestIngestBlankDocumentCompletes(t *testing.T) {
	f := newIngestionFixture()
	f.splitter.chunks = nil

	id, err := f.pipeline.Ingest(context.Background(), []byte("%PDF"), "blank.pdf", IngestionOptions{AutoExtract: true})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	doc := f.docs.mustGet(id)
	if doc.Status != models.StatusCompleted {
		t.Errorf("Status = %s, want completed", doc.Status)
	}
	if doc.PageCount == nil || *doc.PageCount != 2 {
		t.Errorf("PageCount = %v, want 2", doc.PageCount)
	}
	if f.embedder.calls != 0 {
		t.Errorf("embedder called %d times for a blank document, want 0", f.embedder.calls)
	}
	if f.extractor.calls != 0 {
		t.Errorf("extractor called %d times for a blank document, want 0", f.extractor.calls)
	}
}

func TestIngestExtractionFailureDoesNotFailIngestion(t *testing.T) {
	f := newIngestionFixture()
	f.extractor.err = errors.New("invalid JSON from model")

	id, err := f.pipeline.Ingest(context.Background(), []byte("%PDF"), "a.pdf", IngestionOptions{AutoExtract: true})
	if err != nil {
		t.Fatalf("Ingest() error = %v, extraction must be best effort", err)
	}
	if doc := f.docs.mustGet(id); doc.Status != models.StatusCompleted {
		t.Errorf("Status = %s, want completed", doc.Status)
	}
	if _, err := f.extracted.GetByDocument(context.Background(), id); err == nil {
		t.Error("expected no extracted record after extraction failure")
	}
}

func TestReExtractReturnsExistingWithoutForce(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	id, err := f.pipeline.Ingest(ctx, []byte("%PDF"), "a.pdf", IngestionOptions{AutoExtract: true})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	callsAfterIngest := f.extractor.calls

	data, err := f.pipeline.ReExtract(ctx, id, false)
	if err != nil {
		t.Fatalf("ReExtract() error = %v", err)
	}
	if data == nil {
		t.Fatal("expected existing extracted data")
	}
	if f.extractor.calls != callsAfterIngest {
		t.Errorf("extractor re-ran without force: %d calls, want %d", f.extractor.calls, callsAfterIngest)
	}
}

func TestReExtractForceRerunsFromChunks(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	id, err := f.pipeline.Ingest(ctx, []byte("%PDF"), "a.pdf", IngestionOptions{AutoExtract: true})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	upsertsBefore := f.extracted.upserts

	data, err := f.pipeline.ReExtract(ctx, id, true)
	if err != nil {
		t.Fatalf("ReExtract() error = %v", err)
	}
	if data == nil {
		t.Fatal("expected re-extracted data")
	}
	if f.extracted.upserts != upsertsBefore+1 {
		t.Errorf("upserts = %d, want %d", f.extracted.upserts, upsertsBefore+1)
	}
	if doc := f.docs.mustGet(id); doc.Status != models.StatusCompleted {
		t.Errorf("ReExtract changed document status to %s", doc.Status)
	}
}

func TestReExtractFailureYieldsNilResult(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	id, err := f.pipeline.Ingest(ctx, []byte("%PDF"), "a.pdf", IngestionOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	f.extractor.err = errors.New("model refused")

	data, err := f.pipeline.ReExtract(ctx, id, true)
	if err != nil {
		t.Fatalf("ReExtract() error = %v, extraction failure must yield nil result", err)
	}
	if data != nil {
		t.Errorf("ReExtract() data = %s, want nil", data)
	}
	if doc := f.docs.mustGet(id); doc.Status != models.StatusCompleted {
		t.Errorf("ReExtract changed document status to %s", doc.Status)
	}
}

func TestReExtractUnknownTypeYieldsNilResult(t *testing.T) {
	f := newIngestionFixture()
	f.classifier.docType = models.DocumentTypeUnknown
	ctx := context.Background()

	id, err := f.pipeline.Ingest(ctx, []byte("%PDF"), "a.pdf", IngestionOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	data, err := f.pipeline.ReExtract(ctx, id, true)
	if err != nil {
		t.Fatalf("ReExtract() error = %v", err)
	}
	if data != nil {
		t.Error("expected nil data for unknown document type")
	}
}
