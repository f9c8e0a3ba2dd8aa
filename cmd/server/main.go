package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Baaaki/community-hub/internal/audit"
	"github.com/Baaaki/community-hub/internal/broker"
	"github.com/Baaaki/community-hub/internal/config"
	"github.com/Baaaki/community-hub/internal/database"
	"github.com/Baaaki/community-hub/internal/handler"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/router"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/Baaaki/community-hub/internal/storage"
	"github.com/Baaaki/community-hub/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction(), cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Initialize(db, database.AdminSeed{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}); err != nil {
		logger.Log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	files, err := storage.NewFileStore(cfg.UploadRoot, cfg.ProfilePhotoSize, cfg.MaxUploadSize)
	if err != nil {
		logger.Log.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	journal, err := audit.Open(cfg.AuditLogPath)
	if err != nil {
		logger.Log.Fatal("Failed to open audit journal", zap.Error(err))
	}
	defer journal.Close()

	// Redis is optional: without it notifications are dropped and logins are not rate limited
	var (
		redisClient *redis.Client
		notifier    broker.Notifier = broker.NopNotifier{}
	)
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = broker.NewRedisClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Log.Fatal("Failed to connect Redis", zap.Error(err))
		}
		notifier = broker.NewRedisNotifier(redisClient)
	} else {
		logger.Log.Warn("REDIS_URL not set, notifications and rate limiting disabled")
	}
	defer notifier.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	eventRepo := repository.NewEventRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry, cfg.Environment)
	profileService := service.NewProfileService(profileRepo, files, cfg.ProfilePhotoTypes)
	discussionService := service.NewDiscussionService(discussionRepo, notifier, journal)
	eventService := service.NewEventService(eventRepo, notifier, journal)
	resourceService := service.NewResourceService(resourceRepo, files, cfg.ResourceAllowedTypes, journal)
	messageService := service.NewMessageService(messageRepo, userRepo, notifier, journal)
	announcementService := service.NewAnnouncementService(announcementRepo, notifier, journal)
	adminService := service.NewAdminService(authService, userRepo, profileRepo, resourceRepo, maintenanceRepo, analyticsRepo, files, journal)

	engine := router.New(router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Profile:      handler.NewProfileHandler(profileService, files),
		Discussion:   handler.NewDiscussionHandler(discussionService),
		Event:        handler.NewEventHandler(eventService),
		Resource:     handler.NewResourceHandler(resourceService, files),
		Message:      handler.NewMessageHandler(messageService),
		Announcement: handler.NewAnnouncementHandler(announcementService),
		Admin:        handler.NewAdminHandler(adminService),
		Notification: handler.NewNotificationHandler(notifier, cfg.CORSAllowedOrigins),
	}, router.Options{
		Config:      cfg,
		AuthService: authService,
		Redis:       redisClient,
		UploadRoot:  cfg.UploadRoot,
	})

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
			zap.String("db_driver", cfg.DatabaseDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
