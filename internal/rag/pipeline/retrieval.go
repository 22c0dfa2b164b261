package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"propertyrag/internal/models"
	"propertyrag/internal/rag/interfaces"
	"propertyrag/internal/rag/schema"
	"propertyrag/internal/store"
	"propertyrag/pkg/logger"
)

// RetrievalError wraps any failure while resolving chunks for a query.
// Queries are read-only, so no state needs cleanup when one is returned.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// contextScoreFactor is the synthetic score discount for neighbor chunks
// pulled in by context expansion. They are never re-scored by the vector
// store.
const contextScoreFactor = 0.9

// RetrievalEngine answers similarity queries over the indexed chunks.
type RetrievalEngine struct {
	embedder    interfaces.EmbeddingModel
	vectors     interfaces.VectorStore
	chunks      interfaces.ChunkStore
	documents   interfaces.DocumentStore
	defaultTopK int
	log         *logger.Logger
}

func NewRetrievalEngine(
	embedder interfaces.EmbeddingModel,
	vectors interfaces.VectorStore,
	chunks interfaces.ChunkStore,
	documents interfaces.DocumentStore,
	defaultTopK int,
	log *logger.Logger,
) *RetrievalEngine {
	return &RetrievalEngine{
		embedder:    embedder,
		vectors:     vectors,
		chunks:      chunks,
		documents:   documents,
		defaultTopK: defaultTopK,
		log:         log,
	}
}

// Retrieve returns the chunks most similar to the query, highest score
// first, dropping everything below minScore. Filenames are resolved once
// per distinct document within the call.
func (r *RetrievalEngine) Retrieve(ctx context.Context, query string, topK int, filter schema.SearchFilter, minScore float64) ([]schema.RetrievedChunk, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}

	vector, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}

	hits, err := r.vectors.Search(ctx, vector, topK, filter)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}

	scored := hits[:0]
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Score < minScore {
			continue
		}
		scored = append(scored, h)
		ids = append(ids, h.ChunkID)
	}
	if len(scored) == 0 {
		return nil, nil
	}

	rows, err := r.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}
	byID := make(map[string]*models.Chunk, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	filenames := make(map[string]string)
	results := make([]schema.RetrievedChunk, 0, len(scored))
	for _, h := range scored {
		row, ok := byID[h.ChunkID]
		if !ok {
			r.log.WithField("chunk_id", h.ChunkID).Warn("Indexed chunk has no stored row, skipping")
			continue
		}
		filename, err := r.resolveFilename(ctx, filenames, h.DocumentID)
		if err != nil {
			return nil, &RetrievalError{Err: err}
		}
		results = append(results, schema.RetrievedChunk{
			ChunkID:    h.ChunkID,
			DocumentID: h.DocumentID,
			Filename:   filename,
			Content:    row.Content,
			PageNumber: row.PageNumber,
			Score:      h.Score,
		})
	}

	r.log.WithPayload(map[string]interface{}{
		"count": len(results),
		"top_k": topK,
	}).Debug("Chunks retrieved")
	return results, nil
}

// RetrieveWithContext expands each primary hit with a symmetric window of
// neighboring chunks from the same document. Neighbors inherit the primary
// chunk's filename and a discounted score. The merged list is ordered by
// document, then page, then score, for coherent reading.
func (r *RetrievalEngine) RetrieveWithContext(ctx context.Context, query string, topK int, filter schema.SearchFilter, contextChunks int) ([]schema.RetrievedChunk, error) {
	primary, err := r.Retrieve(ctx, query, topK, filter, 0)
	if err != nil {
		return nil, err
	}
	if len(primary) == 0 || contextChunks == 0 {
		return primary, nil
	}

	docChunks, err := r.fetchDocumentChunks(ctx, primary)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}

	merged := make(map[string]schema.RetrievedChunk, len(primary))
	for _, chunk := range primary {
		merged[chunk.ChunkID] = chunk
	}
	for _, chunk := range primary {
		ordered := docChunks[chunk.DocumentID]
		idx := -1
		for i, row := range ordered {
			if row.ID == chunk.ChunkID {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}

		start := idx - contextChunks
		if start < 0 {
			start = 0
		}
		end := idx + contextChunks + 1
		if end > len(ordered) {
			end = len(ordered)
		}
		for _, row := range ordered[start:end] {
			if _, seen := merged[row.ID]; seen {
				continue
			}
			merged[row.ID] = schema.RetrievedChunk{
				ChunkID:    row.ID,
				DocumentID: row.DocumentID,
				Filename:   chunk.Filename,
				Content:    row.Content,
				PageNumber: row.PageNumber,
				Score:      chunk.Score * contextScoreFactor,
			}
		}
	}

	result := make([]schema.RetrievedChunk, 0, len(merged))
	for _, chunk := range merged {
		result = append(result, chunk)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DocumentID != result[j].DocumentID {
			return result[i].DocumentID < result[j].DocumentID
		}
		pi, pj := pageOrZero(result[i].PageNumber), pageOrZero(result[j].PageNumber)
		if pi != pj {
			return pi < pj
		}
		return result[i].Score < result[j].Score
	})

	r.log.WithPayload(map[string]interface{}{
		"primary_count": len(primary),
		"total_count":   len(result),
	}).Debug("Chunks retrieved with context")
	return result, nil
}

// fetchDocumentChunks loads the ordered chunk list of every document that
// produced a primary hit. Each document's list is fetched once,
// concurrently across documents.
func (r *RetrievalEngine) fetchDocumentChunks(ctx context.Context, primary []schema.RetrievedChunk) (map[string][]*models.Chunk, error) {
	docIDs := make([]string, 0, len(primary))
	seen := make(map[string]bool, len(primary))
	for _, chunk := range primary {
		if !seen[chunk.DocumentID] {
			seen[chunk.DocumentID] = true
			docIDs = append(docIDs, chunk.DocumentID)
		}
	}

	var mu sync.Mutex
	lists := make(map[string][]*models.Chunk, len(docIDs))
	g, ctx := errgroup.WithContext(ctx)
	for _, docID := range docIDs {
		docID := docID
		g.Go(func() error {
			rows, err := r.chunks.ListByDocument(ctx, docID)
			if err != nil {
				return err
			}
			mu.Lock()
			lists[docID] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *RetrievalEngine) resolveFilename(ctx context.Context, cache map[string]string, documentID string) (string, error) {
	if name, ok := cache[documentID]; ok {
		return name, nil
	}
	doc, err := r.documents.GetByID(ctx, documentID)
	if errors.Is(err, store.ErrNotFound) {
		cache[documentID] = "Unknown"
		return "Unknown", nil
	}
	if err != nil {
		return "", err
	}
	cache[documentID] = doc.Filename
	return doc.Filename, nil
}

func pageOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
