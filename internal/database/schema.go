package database

import (
	"fmt"
	"time"

	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/utils"
	"github.com/Baaaki/community-hub/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminSeed is the placeholder credential of the bootstrap admin
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// Initialize creates missing tables and, only when the users table is empty,
// the bootstrap admin. Safe to run any number of times.
func Initialize(db *gorm.DB, seed AdminSeed) error {
	start := time.Now()

	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Log.Error("Migration failed", zap.Error(err))
		return fmt.Errorf("migrate: %w", err)
	}

	created := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		digest, salt, err := utils.HashPassword(seed.Password, "")
		if err != nil {
			return err
		}

		now := NowUTC()
		admin := &models.User{
			Username:     seed.Username,
			Email:        seed.Email,
			PasswordHash: digest,
			Salt:         salt,
			Role:         models.RoleAdmin,
			CreatedAt:    now,
			LastLogin:    &now,
		}
		if err := tx.Create(admin).Error; err != nil {
			return err
		}

		profile := &models.Profile{
			UserID:    admin.ID,
			Bio:       "Community administrator",
			Interests: "Community Development",
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}

		created = true
		return nil
	})
	if err != nil {
		logger.Log.Error("Admin bootstrap failed", zap.Error(err))
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	if created {
		logger.Log.Warn("Bootstrap admin created; change its password",
			zap.String("username", seed.Username),
		)
	}
	logger.Log.Info("Database schema ready",
		zap.Bool("admin_created", created),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
