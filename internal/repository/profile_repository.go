package repository

import (
	"errors"

	"github.com/Baaaki/community-hub/internal/models"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetView joins the profile with its user. Returns nil, nil for unknown users.
func (r *ProfileRepository) GetView(userID uint) (*models.ProfileView, error) {
	var view models.ProfileView
	result := r.db.Table("users").
		Select("users.id AS user_id, users.username, users.email, users.role, COALESCE(profiles.bio, '') AS bio, COALESCE(profiles.interests, '') AS interests, profiles.photo_path").
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id").
		Where("users.id = ?", userID).
		Limit(1).
		Scan(&view)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &view, nil
}

func (r *ProfileRepository) GetByUserID(userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// UpdateText sets bio and interests, leaving the photo untouched
func (r *ProfileRepository) UpdateText(userID uint, bio, interests string) (bool, error) {
	result := r.db.Model(&models.Profile{}).Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"bio":       bio,
			"interests": interests,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *ProfileRepository) UpdatePhotoPath(userID uint, path string) (bool, error) {
	result := r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Update("photo_path", path)
	return result.RowsAffected > 0, result.Error
}
