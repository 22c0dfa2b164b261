// Package store provides the GORM data access layer for documents,
// chunks, projects and extracted records.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"propertyrag/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// DocumentDAL provides data access methods for document records.
type DocumentDAL struct {
	db *gorm.DB
}

func NewDocumentDAL(db *gorm.DB) *DocumentDAL {
	return &DocumentDAL{db: db}
}

// Create inserts a new document record.
func (dal *DocumentDAL) Create(ctx context.Context, doc *models.Document) error {
	return dal.db.WithContext(ctx).Create(doc).Error
}

// GetByID returns the document or ErrNotFound.
func (dal *DocumentDAL) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := dal.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns documents, newest first, optionally filtered by project
// and status.
func (dal *DocumentDAL) List(ctx context.Context, projectID *string, status *models.ProcessingStatus) ([]*models.Document, error) {
	query := dal.db.WithContext(ctx).Order("created_at DESC")
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var docs []*models.Document
	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateStatus transitions the document's processing status. The page
// count is set alongside when known.
func (dal *DocumentDAL) UpdateStatus(ctx context.Context, id string, status models.ProcessingStatus, pageCount *int) error {
	updates := map[string]interface{}{"status": status}
	if pageCount != nil {
		updates["page_count"] = *pageCount
	}

	result := dal.db.WithContext(ctx).Model(&models.Document{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateType records the classified document type.
func (dal *DocumentDAL) UpdateType(ctx context.Context, id string, docType models.DocumentType) error {
	result := dal.db.WithContext(ctx).Model(&models.Document{}).Where("id = ?", id).Update("document_type", docType)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document together with its chunks and extracted
// record in one transaction.
func (dal *DocumentDAL) Delete(ctx context.Context, id string) error {
	return dal.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.Chunk{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&models.ExtractedRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Document{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
