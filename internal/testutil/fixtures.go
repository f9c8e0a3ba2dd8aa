package testutil

import (
	"testing"
	"time"

	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/internal/utils"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every fixture user
const DefaultPassword = "Test123456"

// CreateTestUser inserts a user and its profile with DefaultPassword
func CreateTestUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	digest, salt, err := utils.HashPassword(DefaultPassword, "")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: digest,
		Salt:         salt,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	if err := db.Create(&models.Profile{UserID: user.ID}).Error; err != nil {
		t.Fatalf("Failed to create profile for %s: %v", username, err)
	}
	return user
}

// DefaultTestUser returns a default test user (regular user)
func DefaultTestUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "testuser", models.RoleUser)
}

// DefaultAdminUser returns a default admin user
func DefaultAdminUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "admin", models.RoleAdmin)
}

// SessionOf builds the session a logged-in user would carry
func SessionOf(user *models.User) session.Session {
	return session.New(user)
}

// CountRows counts rows of model matching an optional condition
func CountRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("Failed to count %T: %v", model, err)
	}
	return count
}
