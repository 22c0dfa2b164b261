// Package vectorstore adapts the Milvus client to the pipeline's
// VectorStore interface.
package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	milvusdb "propertyrag/internal/database/milvus"
	"propertyrag/internal/rag/interfaces"
	"propertyrag/internal/rag/schema"
	"propertyrag/pkg/logger"
)

// MilvusStore indexes chunk vectors in a Milvus collection. Chunk content
// stays in the relational store; searches return chunk IDs and scores only.
type MilvusStore struct {
	client     client.Client
	collection string
	log        *logger.Logger
}

func NewMilvusStore(c client.Client, collection string, log *logger.Logger) *MilvusStore {
	return &MilvusStore{client: c, collection: collection, log: log}
}

// Add inserts the entries as one batch.
func (s *MilvusStore) Add(ctx context.Context, entries []schema.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	chunkIDs := make([]string, len(entries))
	documentIDs := make([]string, len(entries))
	projectIDs := make([]string, len(entries))
	vectors := make([][]float32, len(entries))
	for i, e := range entries {
		chunkIDs[i] = e.ChunkID
		documentIDs[i] = e.DocumentID
		projectIDs[i] = e.ProjectID
		vectors[i] = e.Vector
	}

	_, err := s.client.Insert(ctx, s.collection, "",
		entity.NewColumnVarChar(milvusdb.FieldChunkID, chunkIDs),
		entity.NewColumnVarChar(milvusdb.FieldDocumentID, documentIDs),
		entity.NewColumnVarChar(milvusdb.FieldProjectID, projectIDs),
		entity.NewColumnFloatVector(milvusdb.FieldEmbedding, len(vectors[0]), vectors),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %d vectors into %s: %w", len(entries), s.collection, err)
	}

	s.log.WithPayload(map[string]interface{}{
		"collection": s.collection,
		"count":      len(entries),
	}).Debug("Inserted chunk vectors")
	return nil
}

// Search runs a cosine similarity query. The returned scores are cosine
// similarities, so higher means more relevant.
func (s *MilvusStore) Search(ctx context.Context, vector []float32, topK int, filter schema.SearchFilter) ([]schema.ScoredChunk, error) {
	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	results, err := s.client.Search(
		ctx, s.collection, nil,
		buildFilterExpr(filter),
		[]string{milvusdb.FieldChunkID, milvusdb.FieldDocumentID},
		[]entity.Vector{entity.FloatVector(vector)},
		milvusdb.FieldEmbedding,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", s.collection, err)
	}

	var hits []schema.ScoredChunk
	for _, res := range results {
		chunkIDs, err := varCharColumn(res.Fields, milvusdb.FieldChunkID)
		if err != nil {
			return nil, err
		}
		documentIDs, err := varCharColumn(res.Fields, milvusdb.FieldDocumentID)
		if err != nil {
			return nil, err
		}
		for i := 0; i < res.ResultCount; i++ {
			hits = append(hits, schema.ScoredChunk{
				ChunkID:    chunkIDs[i],
				DocumentID: documentIDs[i],
				Score:      float64(res.Scores[i]),
			})
		}
	}
	return hits, nil
}

// DeleteByDocument removes all vectors belonging to one document.
func (s *MilvusStore) DeleteByDocument(ctx context.Context, documentID string) error {
	expr := fmt.Sprintf(`%s == "%s"`, milvusdb.FieldDocumentID, documentID)
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("failed to delete vectors for document %s: %w", documentID, err)
	}
	return nil
}

// buildFilterExpr translates a SearchFilter into a Milvus boolean
// expression. An explicit document list takes precedence over the project
// scope.
func buildFilterExpr(filter schema.SearchFilter) string {
	if len(filter.DocumentIDs) > 0 {
		quoted := make([]string, len(filter.DocumentIDs))
		for i, id := range filter.DocumentIDs {
			quoted[i] = fmt.Sprintf("%q", id)
		}
		return fmt.Sprintf("%s in [%s]", milvusdb.FieldDocumentID, strings.Join(quoted, ", "))
	}
	if filter.ProjectID != "" {
		return fmt.Sprintf(`%s == "%s"`, milvusdb.FieldProjectID, filter.ProjectID)
	}
	return ""
}

func varCharColumn(fields []entity.Column, name string) ([]string, error) {
	for _, f := range fields {
		if f.Name() != name {
			continue
		}
		col, ok := f.(*entity.ColumnVarChar)
		if !ok {
			return nil, fmt.Errorf("search result field %s has unexpected type %T", name, f)
		}
		return col.Data(), nil
	}
	return nil, fmt.Errorf("search result is missing field %s", name)
}

var _ interfaces.VectorStore = (*MilvusStore)(nil)
