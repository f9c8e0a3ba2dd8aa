package models

import (
	"time"
)

// Message is a direct message from one user to another
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index" json:"sender_id"`
	ReceiverID uint      `gorm:"not null;index" json:"receiver_id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

// ConversationSummary describes the thread with one other user
type ConversationSummary struct {
	UserID      uint       `json:"user_id"`
	Username    string     `json:"username"`
	LatestAt    *time.Time `json:"latest_at,omitempty"`
	UnreadCount int64      `json:"unread_count"`
}
