package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/Baaaki/community-hub/internal/audit"
	"github.com/Baaaki/community-hub/internal/broker"
	"github.com/Baaaki/community-hub/internal/database"
	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/pkg/logger"
	"go.uber.org/zap"
)

type DiscussionService struct {
	discussionRepo *repository.DiscussionRepository
	notifier       broker.Notifier
	recorder       audit.Recorder
}

func NewDiscussionService(discussionRepo *repository.DiscussionRepository, notifier broker.Notifier, recorder audit.Recorder) *DiscussionService {
	return &DiscussionService{
		discussionRepo: discussionRepo,
		notifier:       notifier,
		recorder:       recorder,
	}
}

func (s *DiscussionService) List(filter repository.DiscussionFilter) ([]models.DiscussionSummary, error) {
	switch filter.Sort {
	case "", repository.SortNewest, repository.SortOldest, repository.SortMostComments:
	default:
		return nil, invalid("unknown sort %q", filter.Sort)
	}

	rows, err := s.discussionRepo.List(filter)
	if err != nil {
		logger.Log.Error("Failed to list discussions", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

// Get returns a discussion with its comments, oldest first
func (s *DiscussionService) Get(id uint) (*models.DiscussionDetail, error) {
	summary, err := s.discussionRepo.GetByID(id)
	if err != nil {
		logger.Log.Error("Failed to load discussion", zap.Uint("discussion_id", id), zap.Error(err))
		return nil, err
	}
	if summary == nil {
		return nil, ErrNotFound
	}

	comments, err := s.discussionRepo.ListComments(id)
	if err != nil {
		logger.Log.Error("Failed to load comments", zap.Uint("discussion_id", id), zap.Error(err))
		return nil, err
	}
	return &models.DiscussionDetail{DiscussionSummary: *summary, Comments: comments}, nil
}

func (s *DiscussionService) Create(sess session.Session, title, body, category string) (*models.Discussion, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	title, body, category = strings.TrimSpace(title), strings.TrimSpace(body), strings.TrimSpace(category)
	if err := required("title", title, "body", body, "category", category); err != nil {
		logger.Log.Warn("Discussion validation failed", zap.Uint("user_id", sess.UserID), zap.Error(err))
		return nil, err
	}

	now := database.NowUTC()
	discussion := &models.Discussion{
		UserID:    sess.UserID,
		Title:     title,
		Body:      body,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.discussionRepo.Create(discussion); err != nil {
		logger.Log.Error("Failed to create discussion", zap.Uint("user_id", sess.UserID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Discussion created",
		zap.Uint("discussion_id", discussion.ID),
		zap.Uint("user_id", sess.UserID),
		zap.String("category", category),
	)

	publish(s.notifier, broker.Notification{
		Type:        broker.TypeDiscussionCreated,
		ActorID:     sess.UserID,
		ActorName:   sess.Username,
		Title:       title,
		ReferenceID: discussion.ID,
	})
	return discussion, nil
}

func (s *DiscussionService) AddComment(sess session.Session, discussionID uint, body string) (*models.Comment, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if err := required("body", body); err != nil {
		return nil, err
	}

	discussion, err := s.discussionRepo.GetByID(discussionID)
	if err != nil {
		return nil, err
	}
	if discussion == nil {
		return nil, ErrNotFound
	}

	comment := &models.Comment{
		DiscussionID: discussionID,
		UserID:       sess.UserID,
		Body:         body,
		CreatedAt:    database.NowUTC(),
	}
	if err := s.discussionRepo.CreateComment(comment); err != nil {
		logger.Log.Error("Failed to create comment",
			zap.Uint("discussion_id", discussionID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Comment added",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("discussion_id", discussionID),
		zap.Uint("user_id", sess.UserID),
	)
	return comment, nil
}

// DeleteComment is allowed for the comment's author or an admin
func (s *DiscussionService) DeleteComment(sess session.Session, commentID uint) error {
	if err := requireSession(sess); err != nil {
		return err
	}

	comment, err := s.discussionRepo.GetComment(commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return ErrNotFound
	}
	if !sess.CanModify(comment.UserID) {
		logger.Log.Warn("Comment delete forbidden",
			zap.Uint("comment_id", commentID),
			zap.Uint("user_id", sess.UserID),
		)
		return ErrForbidden
	}

	if err := s.discussionRepo.DeleteComment(commentID); err != nil {
		return notFound(err)
	}
	recordModeration(s.recorder, sess, audit.ActionDeleteComment, comment.UserID, commentID,
		fmt.Sprintf("discussion %d", comment.DiscussionID))
	logger.Log.Info("Comment deleted",
		zap.Uint("comment_id", commentID),
		zap.Uint("deleted_by", sess.UserID),
	)
	return nil
}

func (s *DiscussionService) Categories() ([]string, error) {
	return s.discussionRepo.Categories()
}

// Delete removes a discussion with all its comments. Author or admin only.
func (s *DiscussionService) Delete(sess session.Session, id uint) error {
	start := time.Now()
	if err := requireSession(sess); err != nil {
		return err
	}

	discussion, err := s.discussionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if discussion == nil {
		return ErrNotFound
	}
	if !sess.CanModify(discussion.UserID) {
		logger.Log.Warn("Discussion delete forbidden",
			zap.Uint("discussion_id", id),
			zap.Uint("user_id", sess.UserID),
		)
		return ErrForbidden
	}

	if err := s.discussionRepo.Delete(id); err != nil {
		logger.Log.Error("Discussion cascade failed", zap.Uint("discussion_id", id), zap.Error(err))
		return notFound(err)
	}
	recordModeration(s.recorder, sess, audit.ActionDeleteDiscussion, discussion.UserID, id, discussion.Title)

	logger.Log.Info("Discussion deleted",
		zap.Uint("discussion_id", id),
		zap.Uint("deleted_by", sess.UserID),
		zap.Int64("comments_removed", discussion.CommentCount),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
