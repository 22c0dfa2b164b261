// Package interfaces defines the collaborator contracts the RAG pipeline
// is built against. Production and test implementations are
// interchangeable behind these.
package interfaces

import (
	"context"

	"propertyrag/internal/models"
	"propertyrag/internal/rag/schema"
)

// Tokenizer counts and decodes tokens. One tokenizer instance is shared
// across the whole pipeline so stored token counts stay reproducible.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

// Parser turns raw PDF bytes into page-segmented text.
type Parser interface {
	Parse(content []byte, filename string) (*schema.ParsedDocument, error)
}

// Splitter produces ordered, token-bounded chunks from a parsed document.
type Splitter interface {
	Split(doc *schema.ParsedDocument) []schema.TextChunk
}

// EmbeddingModel turns texts into fixed-dimension vectors, order-preserving.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Classifier assigns one of the known document type labels to a text
// sample, or unknown.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.DocumentType, error)
}

// Extractor pulls a type-specific structured record from full document
// text. The returned value marshals to the record's JSON field map.
type Extractor interface {
	Extract(ctx context.Context, text string, docType models.DocumentType) (interface{}, float64, error)
}

// VectorStore indexes chunk vectors and answers similarity queries.
type VectorStore interface {
	Add(ctx context.Context, entries []schema.VectorEntry) error
	Search(ctx context.Context, vector []float32, topK int, filter schema.SearchFilter) ([]schema.ScoredChunk, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// DocumentStore persists document records and their status transitions.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	UpdateStatus(ctx context.Context, id string, status models.ProcessingStatus, pageCount *int) error
	UpdateType(ctx context.Context, id string, docType models.DocumentType) error
}

// ChunkStore persists chunks and serves them back in chunk order.
type ChunkStore interface {
	CreateMany(ctx context.Context, chunks []*models.Chunk) error
	ListByDocument(ctx context.Context, documentID string) ([]*models.Chunk, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Chunk, error)
}

// ExtractedStore persists extracted records, one per document.
type ExtractedStore interface {
	GetByDocument(ctx context.Context, documentID string) (*models.ExtractedRecord, error)
	Upsert(ctx context.Context, record *models.ExtractedRecord) error
}

// EventPublisher emits document lifecycle events. Implementations must be
// safe to skip entirely (a nil publisher disables events).
type EventPublisher interface {
	PublishStatus(ctx context.Context, documentID string, status models.ProcessingStatus, stage string)
}
