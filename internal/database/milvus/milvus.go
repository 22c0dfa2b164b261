// Package milvus manages the connection to the vector database and the
// chunk collection's lifecycle.
package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"propertyrag/internal/config"
)

// Collection field names. The chunk text itself lives in MySQL under the
// same chunk_id; the collection only carries what similarity search needs.
const (
	FieldChunkID    = "chunk_id"
	FieldDocumentID = "document_id"
	FieldProjectID  = "project_id"
	FieldEmbedding  = "embedding"
)

// Connect dials Milvus and verifies the connection.
func Connect(ctx context.Context, cfg *config.MilvusConfig) (client.Client, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}
	if _, err := c.ListCollections(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("Milvus connection check failed: %w", err)
	}
	return c, nil
}

// EnsureCollection creates the chunk collection with an HNSW cosine index
// if it does not exist yet, then loads it for search. Scores returned by
// searches against this index are cosine similarities, higher is closer.
func EnsureCollection(ctx context.Context, c client.Client, collection string, dim int) error {
	exists, err := c.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", collection, err)
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(collection).
			WithDescription("Embedded document chunks for similarity search").
			WithField(entity.NewField().
				WithName(FieldChunkID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(36).
				WithIsPrimaryKey(true)).
			WithField(entity.NewField().
				WithName(FieldDocumentID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(36)).
			WithField(entity.NewField().
				WithName(FieldProjectID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(36)).
			WithField(entity.NewField().
				WithName(FieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(dim)))

		if err := c.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collection, err)
		}

		idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 96)
		if err != nil {
			return fmt.Errorf("failed to build HNSW index: %w", err)
		}
		if err := c.CreateIndex(ctx, collection, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", FieldEmbedding, err)
		}
	}

	if err := c.LoadCollection(ctx, collection, false); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", collection, err)
	}
	return nil
}

// HealthCheck verifies the Milvus connection is still usable.
func HealthCheck(ctx context.Context, c client.Client) error {
	if _, err := c.ListCollections(ctx); err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}
