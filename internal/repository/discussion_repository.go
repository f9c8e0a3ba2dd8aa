package repository

import (
	"errors"

	"github.com/Baaaki/community-hub/internal/models"
	"gorm.io/gorm"
)

type DiscussionRepository struct {
	db *gorm.DB
}

func NewDiscussionRepository(db *gorm.DB) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

func (r *DiscussionRepository) Create(discussion *models.Discussion) error {
	return r.db.Create(discussion).Error
}

func (r *DiscussionRepository) summaries() *gorm.DB {
	return r.db.Table("discussions").
		Select("discussions.*, users.username AS author_username, COUNT(comments.id) AS comment_count").
		Joins("JOIN users ON users.id = discussions.user_id").
		Joins("LEFT JOIN comments ON comments.discussion_id = discussions.id").
		Group("discussions.id, users.username")
}

// List returns discussions matching the filter with author and comment count
func (r *DiscussionRepository) List(filter DiscussionFilter) ([]models.DiscussionSummary, error) {
	q := r.summaries()

	if filter.Category != "" {
		q = q.Where("discussions.category = ?", filter.Category)
	}
	if filter.Since != nil {
		q = q.Where("discussions.created_at >= ?", filter.Since.UTC())
	}
	q = whereSearch(q, filter.Search, "discussions.title", "discussions.body")

	switch filter.Sort {
	case SortOldest:
		q = q.Order("discussions.created_at ASC, discussions.id ASC")
	case SortMostComments:
		q = q.Order("comment_count DESC, discussions.created_at DESC")
	default:
		q = q.Order("discussions.created_at DESC, discussions.id DESC")
	}

	var rows []models.DiscussionSummary
	err := q.Scan(&rows).Error
	return rows, err
}

// GetByID returns nil, nil when the discussion does not exist
func (r *DiscussionRepository) GetByID(id uint) (*models.DiscussionSummary, error) {
	var rows []models.DiscussionSummary
	if err := r.summaries().Where("discussions.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Categories returns the distinct categories in use, sorted
func (r *DiscussionRepository) Categories() ([]string, error) {
	var categories []string
	err := r.db.Model(&models.Discussion{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

func (r *DiscussionRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

func (r *DiscussionRepository) GetComment(id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// ListComments returns comments of a discussion, oldest first
func (r *DiscussionRepository) ListComments(discussionID uint) ([]models.CommentView, error) {
	var rows []models.CommentView
	err := r.db.Table("comments").
		Select("comments.*, users.username AS author_username").
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.discussion_id = ?", discussionID).
		Order("comments.created_at ASC, comments.id ASC").
		Scan(&rows).Error
	return rows, err
}

// Delete removes the discussion and its comments in one transaction
func (r *DiscussionRepository) Delete(id uint) error {
	return DeleteCascade(r.db, EntityDiscussion, id)
}

func (r *DiscussionRepository) DeleteComment(id uint) error {
	return DeleteCascade(r.db, EntityComment, id)
}
