package repository

import (
	"errors"

	"github.com/Baaaki/community-hub/internal/models"
	"gorm.io/gorm"
)

type ResourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) Create(resource *models.Resource) error {
	return r.db.Create(resource).Error
}

func (r *ResourceRepository) summaries() *gorm.DB {
	return r.db.Table("resources").
		Select("resources.*, users.username AS owner_username").
		Joins("JOIN users ON users.id = resources.user_id")
}

func (r *ResourceRepository) List(filter ResourceFilter) ([]models.ResourceSummary, error) {
	q := r.summaries()

	if filter.Type != "" {
		q = q.Where("resources.resource_type = ?", filter.Type)
	}
	q = whereSearch(q, filter.Search, "resources.title", "resources.description")

	switch filter.Sort {
	case SortOldest:
		q = q.Order("resources.created_at ASC, resources.id ASC")
	case SortTitle:
		q = q.Order("resources.title ASC, resources.id ASC")
	default:
		q = q.Order("resources.created_at DESC, resources.id DESC")
	}

	var rows []models.ResourceSummary
	err := q.Scan(&rows).Error
	return rows, err
}

func (r *ResourceRepository) GetByID(id uint) (*models.Resource, error) {
	var resource models.Resource
	err := r.db.First(&resource, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resource, nil
}

// Types returns the distinct resource types in use, sorted
func (r *ResourceRepository) Types() ([]string, error) {
	var types []string
	err := r.db.Model(&models.Resource{}).
		Distinct("resource_type").
		Order("resource_type ASC").
		Pluck("resource_type", &types).Error
	return types, err
}

// FilePathsByUser lists stored files owned by a user, used before a user cascade
func (r *ResourceRepository) FilePathsByUser(userID uint) ([]string, error) {
	var paths []string
	err := r.db.Model(&models.Resource{}).
		Where("user_id = ? AND file_path IS NOT NULL", userID).
		Pluck("file_path", &paths).Error
	return paths, err
}

func (r *ResourceRepository) Delete(id uint) error {
	return DeleteCascade(r.db, EntityResource, id)
}
