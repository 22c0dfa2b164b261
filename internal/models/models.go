package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentType is the closed set of real-estate document types the system
// understands. The wire values are the German labels the classifier and
// extraction prompts work with.
type DocumentType string

const (
	DocumentTypeMietvertrag           DocumentType = "mietvertrag"           // rental contract
	DocumentTypeGutachten             DocumentType = "gutachten"             // valuation report
	DocumentTypeGrundbuchauszug       DocumentType = "grundbuchauszug"       // land register extract
	DocumentTypeNebenkostenabrechnung DocumentType = "nebenkostenabrechnung" // utility statement
	DocumentTypeUnknown               DocumentType = "unknown"
)

// ParseDocumentType maps a raw string to a DocumentType. Anything that is
// not an exact known label maps to unknown rather than failing.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(s) {
	case DocumentTypeMietvertrag, DocumentTypeGutachten,
		DocumentTypeGrundbuchauszug, DocumentTypeNebenkostenabrechnung:
		return DocumentType(s)
	default:
		return DocumentTypeUnknown
	}
}

// ProcessingStatus is the document ingestion lifecycle state.
// Transitions: pending -> processing -> completed | failed.
// The terminal states are never re-entered by ingestion.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Project groups documents, e.g. one property or one transaction.
type Project struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Document is the persisted record of an ingested PDF. It is owned by the
// ingestion pipeline; only pipeline stage transitions mutate it.
type Document struct {
	ID           string           `gorm:"primaryKey;size:36" json:"id"`
	Filename     string           `gorm:"not null;size:500" json:"filename"`
	DocumentType DocumentType     `gorm:"index;not null;size:32;default:unknown" json:"document_type"`
	Status       ProcessingStatus `gorm:"index;not null;size:16;default:pending" json:"status"`
	PageCount    *int             `json:"page_count"`
	ProjectID    *string          `gorm:"index;size:36" json:"project_id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// Chunk is one token-bounded span of a document's text. The vector lives
// in the Milvus collection under the same ID; the row holds everything
// retrieval needs to render the chunk.
type Chunk struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	DocumentID string    `gorm:"index;not null;size:36" json:"document_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	PageNumber *int      `json:"page_number"`
	ChunkIndex int       `gorm:"not null" json:"chunk_index"`
	TokenCount int       `gorm:"not null" json:"token_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExtractedRecord is the structured field map extracted from a document,
// one record per document.
type ExtractedRecord struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	DocumentID   string         `gorm:"uniqueIndex;not null;size:36" json:"document_id"`
	DocumentType DocumentType   `gorm:"index;not null;size:32" json:"document_type"`
	Data         datatypes.JSON `gorm:"not null" json:"data"`
	Confidence   *float64       `json:"confidence"`
	ExtractedAt  time.Time      `gorm:"autoCreateTime" json:"extracted_at"`
}

func (r *ExtractedRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Source is one deduplicated reference backing an answer.
type Source struct {
	DocumentID   string  `json:"document_id"`
	Filename     string  `json:"filename"`
	PageNumber   *int    `json:"page_number,omitempty"`
	ChunkContent string  `json:"chunk_content"`
	Score        float64 `json:"score"`
}

// QueryRequest is a natural-language question with optional filters.
type QueryRequest struct {
	Question    string   `json:"question" binding:"required"`
	ProjectID   *string  `json:"project_id,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
}

// QueryResponse is the generated answer together with its sources.
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Query   string   `json:"query"`
}
