// Package schema holds the data carriers shared across the RAG pipeline.
package schema

import "strings"

// Page is one page of extracted text. Tables are flattened by the parser
// into pipe-delimited rows appended after the body text. Immutable once
// produced.
type Page struct {
	PageNumber int // 1-based
	Text       string
}

// ParsedDocument is the parser's output for one PDF.
type ParsedDocument struct {
	Filename  string
	Pages     []Page
	PageCount int
}

// FullText joins all page texts with blank lines.
func (d *ParsedDocument) FullText() string {
	parts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n\n")
}

// TextChunk is one token-bounded span of a document's text. For a given
// document, ChunkIndex is a contiguous sequence starting at 0 across all
// pages.
type TextChunk struct {
	Content    string
	PageNumber *int
	ChunkIndex int
	TokenCount int
}

// EmbeddedChunk pairs a TextChunk with its vector.
type EmbeddedChunk struct {
	TextChunk
	Vector []float32
}

// VectorEntry is what goes into the vector index for one chunk. ChunkID is
// shared with the chunk row in the relational store.
type VectorEntry struct {
	ChunkID    string
	DocumentID string
	ProjectID  string
	Vector     []float32
}

// ScoredChunk is a similarity search hit: a chunk reference with its
// similarity score (1 - cosine distance, higher is more relevant).
type ScoredChunk struct {
	ChunkID    string
	DocumentID string
	Score      float64
}

// SearchFilter restricts a similarity search. When DocumentIDs is set it
// takes precedence over ProjectID.
type SearchFilter struct {
	ProjectID   string
	DocumentIDs []string
}

// RetrievedChunk is a fully resolved retrieval result.
type RetrievedChunk struct {
	ChunkID    string
	DocumentID string
	Filename   string
	Content    string
	PageNumber *int
	Score      float64
}
