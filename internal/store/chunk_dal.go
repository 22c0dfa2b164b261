package store

import (
	"context"

	"gorm.io/gorm"

	"propertyrag/internal/models"
)

// ChunkDAL provides data access methods for chunk rows.
type ChunkDAL struct {
	db *gorm.DB
}

func NewChunkDAL(db *gorm.DB) *ChunkDAL {
	return &ChunkDAL{db: db}
}

// CreateMany inserts all chunks of one document in a single batch.
func (dal *ChunkDAL) CreateMany(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return dal.db.WithContext(ctx).CreateInBatches(chunks, 500).Error
}

// ListByDocument returns a document's chunks in chunk order.
func (dal *ChunkDAL) ListByDocument(ctx context.Context, documentID string) ([]*models.Chunk, error) {
	var chunks []*models.Chunk
	err := dal.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetByIDs returns the chunks for the given IDs. Missing IDs are simply
// absent from the result.
func (dal *ChunkDAL) GetByIDs(ctx context.Context, ids []string) ([]*models.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var chunks []*models.Chunk
	if err := dal.db.WithContext(ctx).Where("id IN ?", ids).Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

// DeleteByDocument removes all chunks of one document.
func (dal *ChunkDAL) DeleteByDocument(ctx context.Context, documentID string) error {
	return dal.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&models.Chunk{}).Error
}
