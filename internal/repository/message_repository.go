package repository

import (
	"errors"

	"github.com/Baaaki/community-hub/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) CreateMessage(message *models.Message) error {
	return r.db.Create(message).Error
}

// GetMessageByID retrieves a message by ID
func (r *MessageRepository) GetMessageByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

// Conversation returns messages exchanged between a and b in both directions, oldest first
func (r *MessageRepository) Conversation(a, b uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// MarkRead flags every unread message from sender to receiver as read
func (r *MessageRepository) MarkRead(senderID, receiverID uint) (int64, error) {
	result := r.db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// Involving returns every message sent or received by userID, newest first
func (r *MessageRepository) Involving(userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) UnreadCount(receiverID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) Delete(id uint) error {
	return DeleteCascade(r.db, EntityMessage, id)
}
