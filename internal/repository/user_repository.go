package repository

import (
	"errors"
	"time"

	"github.com/Baaaki/community-hub/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithProfile inserts the user and an empty profile atomically
func (r *UserRepository) CreateWithProfile(user *models.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{UserID: user.ID}).Error
	})
}

// ExistsByUsernameOrEmail reports a collision on either unique column
func (r *UserRepository) ExistsByUsernameOrEmail(username, email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) UpdateLastLogin(id uint, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
}

func (r *UserRepository) UpdateRole(id uint, role models.Role) (bool, error) {
	result := r.db.Model(&models.User{}).Where("id = ?", id).Update("role", role)
	return result.RowsAffected > 0, result.Error
}

func (r *UserRepository) UpdatePassword(id uint, digest, salt string) (bool, error) {
	result := r.db.Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": digest,
			"salt":          salt,
		})
	return result.RowsAffected > 0, result.Error
}

// CountAdmins counts accounts holding the admin role
func (r *UserRepository) CountAdmins() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error
	return count, err
}

// ListOthers returns every user except id, ordered by username
func (r *UserRepository) ListOthers(id uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("id <> ?", id).Order("username ASC").Find(&users).Error
	return users, err
}

// ListWithStats returns all users with their content counts, newest first
func (r *UserRepository) ListWithStats() ([]models.UserStats, error) {
	var rows []models.UserStats
	err := r.db.Model(&models.User{}).
		Select(`users.*,
			(SELECT COUNT(*) FROM discussions WHERE discussions.user_id = users.id) AS discussion_count,
			(SELECT COUNT(*) FROM comments WHERE comments.user_id = users.id) AS comment_count,
			(SELECT COUNT(*) FROM resources WHERE resources.user_id = users.id) AS resource_count`).
		Order("users.created_at DESC, users.id DESC").
		Scan(&rows).Error
	return rows, err
}

// Delete removes the user and every row referencing it
func (r *UserRepository) Delete(id uint) error {
	return DeleteCascade(r.db, EntityUser, id)
}
