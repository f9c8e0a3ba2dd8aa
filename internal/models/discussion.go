package models

import "time"

type Discussion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Category  string    `gorm:"type:varchar(100);not null;index" json:"category"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Comment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;index" json:"discussion_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Body         string    `gorm:"type:text;not null" json:"body"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

// DiscussionSummary is a listing row with author and comment count
type DiscussionSummary struct {
	Discussion     `gorm:"embedded"`
	AuthorUsername string `json:"author_username"`
	CommentCount   int64  `json:"comment_count"`
}

type CommentView struct {
	Comment        `gorm:"embedded"`
	AuthorUsername string `json:"author_username"`
}

// DiscussionDetail is a discussion with its comments, oldest first
type DiscussionDetail struct {
	DiscussionSummary
	Comments []CommentView `json:"comments"`
}
