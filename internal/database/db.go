package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Baaaki/community-hub/internal/config"
	"github.com/Baaaki/community-hub/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NowUTC is the clock every row timestamp is stamped with
func NowUTC() time.Time {
	return time.Now().UTC()
}

// GormConfig is shared by the server and the test harness
func GormConfig() *gorm.Config {
	return &gorm.Config{
		NowFunc: NowUTC,
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

// Connect opens the process-wide connection pool. The caller owns it and
// must call Close on shutdown.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DatabaseDriver {
	case "sqlite":
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.DatabasePath + "?_busy_timeout=5000")
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	logger.Log.Info("Database connected",
		zap.String("driver", cfg.DatabaseDriver),
		zap.Int("max_open_conns", cfg.DBMaxOpenConns),
	)

	return db, nil
}

// Close releases the pool
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Log.Warn("Failed to get underlying DB", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Log.Warn("Failed to close database", zap.Error(err))
	}
}
