package models

import "time"

type Announcement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

type AnnouncementSummary struct {
	Announcement   `gorm:"embedded"`
	AuthorUsername string `json:"author_username"`
}
