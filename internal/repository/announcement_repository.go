package repository

import (
	"github.com/Baaaki/community-hub/internal/models"
	"gorm.io/gorm"
)

type AnnouncementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) Create(announcement *models.Announcement) error {
	return r.db.Create(announcement).Error
}

func (r *AnnouncementRepository) summaries() *gorm.DB {
	return r.db.Table("announcements").
		Select("announcements.*, users.username AS author_username").
		Joins("JOIN users ON users.id = announcements.user_id")
}

// List returns announcements newest first
func (r *AnnouncementRepository) List(filter AnnouncementFilter) ([]models.AnnouncementSummary, error) {
	q := r.summaries()
	if filter.Since != nil {
		q = q.Where("announcements.created_at >= ?", filter.Since.UTC())
	}
	q = whereSearch(q, filter.Search, "announcements.title", "announcements.body")

	var rows []models.AnnouncementSummary
	err := q.Order("announcements.created_at DESC, announcements.id DESC").Scan(&rows).Error
	return rows, err
}

// GetByID returns nil, nil when the announcement does not exist
func (r *AnnouncementRepository) GetByID(id uint) (*models.AnnouncementSummary, error) {
	var rows []models.AnnouncementSummary
	if err := r.summaries().Where("announcements.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *AnnouncementRepository) Delete(id uint) error {
	return DeleteCascade(r.db, EntityAnnouncement, id)
}
