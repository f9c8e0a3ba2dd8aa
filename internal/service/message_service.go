package service

import (
	"fmt"
	"sort"
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

type MessageService struct {
	messageRepo *repository.MessageRepository
	userRepo    *repository.UserRepository
	notifier    broker.Notifier
	recorder    audit.Recorder
}

func NewMessageService(
	messageRepo *repository.MessageRepository,
	userRepo *repository.UserRepository,
	notifier broker.Notifier,
	recorder audit.Recorder,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		recorder:    recorder,
	}
}

func (s *MessageService) Send(sess session.Session, receiverID uint, body string) (*models.Message, error) {
	start := time.Now()
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if err := required("body", body); err != nil {
		return nil, err
	}
	if receiverID == sess.UserID {
		return nil, invalid("cannot message yourself")
	}

	receiver, err := s.userRepo.GetUserByID(receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		logger.Log.Warn("Message to unknown user",
			zap.Uint("sender_id", sess.UserID),
			zap.Uint("receiver_id", receiverID),
		)
		return nil, ErrNotFound
	}

	msg := &models.Message{
		SenderID:   sess.UserID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  database.NowUTC(),
	}
	if err := s.messageRepo.CreateMessage(msg); err != nil {
		logger.Log.Error("Failed to store message",
			zap.Uint("sender_id", sess.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	publish(s.notifier, broker.Notification{
		Type:        broker.TypeDirectMessage,
		RecipientID: receiverID,
		ActorID:     sess.UserID,
		ActorName:   sess.Username,
		ReferenceID: msg.ID,
	})

	logger.Log.Info("Message sent",
		zap.Uint("message_id", msg.ID),
		zap.Uint("sender_id", sess.UserID),
		zap.Uint("receiver_id", receiverID),
		zap.Duration("duration", time.Since(start)),
	)
	return msg, nil
}

// Conversation returns both directions oldest first and marks the other
// user's messages to the caller as read.
func (s *MessageService) Conversation(sess session.Session, otherID uint) ([]models.Message, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	other, err := s.userRepo.GetUserByID(otherID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, ErrNotFound
	}

	marked, err := s.messageRepo.MarkRead(otherID, sess.UserID)
	if err != nil {
		logger.Log.Error("Failed to mark messages read",
			zap.Uint("user_id", sess.UserID),
			zap.Uint("other_id", otherID),
			zap.Error(err),
		)
		return nil, err
	}

	messages, err := s.messageRepo.Conversation(sess.UserID, otherID)
	if err != nil {
		return nil, err
	}

	logger.Log.Debug("Conversation loaded",
		zap.Uint("user_id", sess.UserID),
		zap.Uint("other_id", otherID),
		zap.Int("messages", len(messages)),
		zap.Int64("marked_read", marked),
	)
	return messages, nil
}

// Conversations lists every other user with the latest exchanged message time
// and the unread count from them. Users with recent traffic come first.
func (s *MessageService) Conversations(sess session.Session) ([]models.ConversationSummary, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	others, err := s.userRepo.ListOthers(sess.UserID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.Involving(sess.UserID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uint]*models.ConversationSummary, len(others))
	out := make([]models.ConversationSummary, len(others))
	for i, u := range others {
		out[i] = models.ConversationSummary{UserID: u.ID, Username: u.Username}
		byUser[u.ID] = &out[i]
	}

	for _, m := range messages {
		other := m.SenderID
		if other == sess.UserID {
			other = m.ReceiverID
		}
		summary, ok := byUser[other]
		if !ok {
			continue
		}
		if summary.LatestAt == nil || m.CreatedAt.After(*summary.LatestAt) {
			at := m.CreatedAt
			summary.LatestAt = &at
		}
		if m.ReceiverID == sess.UserID && !m.IsRead {
			summary.UnreadCount++
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LatestAt, out[j].LatestAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (s *MessageService) UnreadCount(sess session.Session) (int64, error) {
	if err := requireSession(sess); err != nil {
		return 0, err
	}
	return s.messageRepo.UnreadCount(sess.UserID)
}

// Delete is allowed for the sender or an admin
func (s *MessageService) Delete(sess session.Session, id uint) error {
	if err := requireSession(sess); err != nil {
		return err
	}

	msg, err := s.messageRepo.GetMessageByID(id)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrNotFound
	}
	if !sess.CanModify(msg.SenderID) {
		logger.Log.Warn("Message delete forbidden",
			zap.Uint("message_id", id),
			zap.Uint("user_id", sess.UserID),
		)
		return ErrForbidden
	}

	if err := s.messageRepo.Delete(id); err != nil {
		return notFound(err)
	}
	recordModeration(s.recorder, sess, audit.ActionDeleteMessage, msg.SenderID, id,
		fmt.Sprintf("%d -> %d", msg.SenderID, msg.ReceiverID))

	logger.Log.Info("Message deleted",
		zap.Uint("message_id", id),
		zap.Uint("deleted_by", sess.UserID),
		zap.Bool("by_admin", sess.IsAdmin() && msg.SenderID != sess.UserID),
	)
	return nil
}
