package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"propertyrag/internal/models"
)

// ProjectWithCount is a project joined with its document count, for
// listings.
type ProjectWithCount struct {
	models.Project
	DocumentCount int64 `json:"document_count"`
}

// ProjectDAL provides data access methods for projects.
type ProjectDAL struct {
	db *gorm.DB
}

func NewProjectDAL(db *gorm.DB) *ProjectDAL {
	return &ProjectDAL{db: db}
}

// Create inserts a new project.
func (dal *ProjectDAL) Create(ctx context.Context, project *models.Project) error {
	return dal.db.WithContext(ctx).Create(project).Error
}

// GetByID returns the project or ErrNotFound.
func (dal *ProjectDAL) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := dal.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns all projects with their document counts, newest first.
func (dal *ProjectDAL) List(ctx context.Context) ([]*ProjectWithCount, error) {
	var projects []*ProjectWithCount
	err := dal.db.WithContext(ctx).
		Model(&models.Project{}).
		Select("projects.*, COUNT(documents.id) AS document_count").
		Joins("LEFT JOIN documents ON documents.project_id = projects.id").
		Group("projects.id").
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Update changes a project's name and description.
func (dal *ProjectDAL) Update(ctx context.Context, project *models.Project) error {
	result := dal.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", project.ID).
		Updates(map[string]interface{}{
			"name":        project.Name,
			"description": project.Description,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project. Its documents are kept but detached.
func (dal *ProjectDAL) Delete(ctx context.Context, id string) error {
	return dal.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Document{}).
			Where("project_id = ?", id).
			Update("project_id", nil).Error
		if err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Project{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
