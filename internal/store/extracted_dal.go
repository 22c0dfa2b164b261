package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"propertyrag/internal/models"
)

// ExtractedDAL provides data access methods for extracted records. Each
// document has at most one record; re-extraction replaces it.
type ExtractedDAL struct {
	db *gorm.DB
}

func NewExtractedDAL(db *gorm.DB) *ExtractedDAL {
	return &ExtractedDAL{db: db}
}

// GetByDocument returns the document's extracted record or ErrNotFound.
func (dal *ExtractedDAL) GetByDocument(ctx context.Context, documentID string) (*models.ExtractedRecord, error) {
	var record models.ExtractedRecord
	err := dal.db.WithContext(ctx).First(&record, "document_id = ?", documentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert inserts the record or replaces the existing one for the same
// document.
func (dal *ExtractedDAL) Upsert(ctx context.Context, record *models.ExtractedRecord) error {
	if record.ExtractedAt.IsZero() {
		record.ExtractedAt = time.Now()
	}
	return dal.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"document_type", "data", "confidence", "extracted_at",
		}),
	}).Create(record).Error
}
