package pipeline

// Shared in-memory fakes for the engine tests. They implement the
// collaborator interfaces the engines are built against.

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"propertyrag/internal/models"
	"propertyrag/internal/rag/schema"
	"propertyrag/internal/store"
)

type fakeParser struct {
	doc *schema.ParsedDocument
	err error
}

func (f *fakeParser) Parse(content []byte, filename string) (*schema.ParsedDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type fakeSplitter struct {
	chunks []schema.TextChunk
}

func (f *fakeSplitter) Split(doc *schema.ParsedDocument) []schema.TextChunk {
	return f.chunks
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), float32(len(texts[i]))}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0, float32(len(text))}, nil
}

type fakeClassifier struct {
	docType models.DocumentType
	err     error
	calls   int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (models.DocumentType, error) {
	f.calls++
	return f.docType, f.err
}

type fakeExtractor struct {
	record     interface{}
	confidence float64
	err        error
	calls      int
}

func (f *fakeExtractor) Extract(ctx context.Context, text string, docType models.DocumentType) (interface{}, float64, error) {
	f.calls++
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.record, f.confidence, nil
}

type memDocuments struct {
	mu       sync.Mutex
	docs     map[string]*models.Document
	getCalls map[string]int
}

func newMemDocuments() *memDocuments {
	return &memDocuments{
		docs:     make(map[string]*models.Document),
		getCalls: make(map[string]int),
	}
}

func (m *memDocuments) Create(ctx context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

func (m *memDocuments) GetByID(ctx context.Context, id string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls[id]++
	doc, ok := m.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *memDocuments) UpdateStatus(ctx context.Context, id string, status models.ProcessingStatus, pageCount *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	doc.Status = status
	if pageCount != nil {
		doc.PageCount = pageCount
	}
	return nil
}

func (m *memDocuments) UpdateType(ctx context.Context, id string, docType models.DocumentType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	doc.DocumentType = docType
	return nil
}

func (m *memDocuments) mustGet(id string) *models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id]
}

type memChunks struct {
	mu   sync.Mutex
	rows []*models.Chunk
}

func (m *memChunks) CreateMany(ctx context.Context, chunks []*models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, chunks...)
	return nil
}

func (m *memChunks) ListByDocument(ctx context.Context, documentID string) ([]*models.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Chunk
	for _, row := range m.rows {
		if row.DocumentID == documentID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (m *memChunks) GetByIDs(ctx context.Context, ids []string) ([]*models.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*models.Chunk
	for _, row := range m.rows {
		if want[row.ID] {
			out = append(out, row)
		}
	}
	return out, nil
}

type memExtracted struct {
	mu      sync.Mutex
	records map[string]*models.ExtractedRecord
	upserts int
}

func newMemExtracted() *memExtracted {
	return &memExtracted{records: make(map[string]*models.ExtractedRecord)}
}

func (m *memExtracted) GetByDocument(ctx context.Context, documentID string) (*models.ExtractedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[documentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *memExtracted) Upsert(ctx context.Context, record *models.ExtractedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	copied := *record
	m.records[record.DocumentID] = &copied
	return nil
}

type memVectors struct {
	mu      sync.Mutex
	entries []schema.VectorEntry
	hits    []schema.ScoredChunk
	err     error
}

func (m *memVectors) Add(ctx context.Context, entries []schema.VectorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memVectors) Search(ctx context.Context, vector []float32, topK int, filter schema.SearchFilter) ([]schema.ScoredChunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.hits) > topK {
		return m.hits[:topK], nil
	}
	return m.hits, nil
}

func (m *memVectors) DeleteByDocument(ctx context.Context, documentID string) error {
	return nil
}

type recordedEvent struct {
	documentID string
	status     models.ProcessingStatus
	stage      string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) PublishStatus(ctx context.Context, documentID string, status models.ProcessingStatus, stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{documentID: documentID, status: status, stage: stage})
}

func intPtr(v int) *int { return &v }
