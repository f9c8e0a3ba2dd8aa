package service

import (
	"strings"

	"github.com/Baaaki/community-hub/internal/audit"
	"github.com/Baaaki/community-hub/internal/broker"
	"github.com/Baaaki/community-hub/internal/database"
	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/pkg/logger"
	"go.uber.org/zap"
)

type AnnouncementService struct {
	announcementRepo *repository.AnnouncementRepository
	notifier         broker.Notifier
	recorder         audit.Recorder
}

func NewAnnouncementService(announcementRepo *repository.AnnouncementRepository, notifier broker.Notifier, recorder audit.Recorder) *AnnouncementService {
	return &AnnouncementService{
		announcementRepo: announcementRepo,
		notifier:         notifier,
		recorder:         recorder,
	}
}

// List returns announcements newest first
func (s *AnnouncementService) List(filter repository.AnnouncementFilter) ([]models.AnnouncementSummary, error) {
	rows, err := s.announcementRepo.List(filter)
	if err != nil {
		logger.Log.Error("Failed to list announcements", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

func (s *AnnouncementService) Get(id uint) (*models.AnnouncementSummary, error) {
	row, err := s.announcementRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

// Create is admin-only and broadcasts a notification to everyone
func (s *AnnouncementService) Create(sess session.Session, title, body string) (*models.Announcement, error) {
	if err := requireAdmin(sess); err != nil {
		logger.Log.Warn("Announcement create forbidden", zap.Uint("user_id", sess.UserID))
		return nil, err
	}
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if err := required("title", title, "body", body); err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		UserID:    sess.UserID,
		Title:     title,
		Body:      body,
		CreatedAt: database.NowUTC(),
	}
	if err := s.announcementRepo.Create(announcement); err != nil {
		logger.Log.Error("Failed to create announcement", zap.Error(err))
		return nil, err
	}

	publish(s.notifier, broker.Notification{
		Type:        broker.TypeAnnouncement,
		ActorID:     sess.UserID,
		ActorName:   sess.Username,
		Title:       title,
		ReferenceID: announcement.ID,
	})

	logger.Log.Info("Announcement created",
		zap.Uint("announcement_id", announcement.ID),
		zap.Uint("admin_id", sess.UserID),
	)
	return announcement, nil
}

func (s *AnnouncementService) Delete(sess session.Session, id uint) error {
	if err := requireAdmin(sess); err != nil {
		logger.Log.Warn("Announcement delete forbidden", zap.Uint("user_id", sess.UserID))
		return err
	}
	if err := s.announcementRepo.Delete(id); err != nil {
		return notFound(err)
	}
	// announcements belong to no user, so every delete is journaled
	recordModeration(s.recorder, sess, audit.ActionDeleteAnnouncement, 0, id, "")
	logger.Log.Info("Announcement deleted",
		zap.Uint("announcement_id", id),
		zap.Uint("admin_id", sess.UserID),
	)
	return nil
}
