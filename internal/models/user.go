package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	Salt         string     `gorm:"type:varchar(64);not null" json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Profile is the 1:1 companion row of a User
type Profile struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	UserID    uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio       string  `gorm:"type:text" json:"bio"`
	Interests string  `gorm:"type:text" json:"interests"`
	PhotoPath *string `gorm:"type:varchar(512)" json:"photo_path,omitempty"`
}

// ProfileView joins a profile with its owner's public account fields
type ProfileView struct {
	UserID    uint    `json:"user_id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Role      Role    `json:"role"`
	Bio       string  `json:"bio"`
	Interests string  `json:"interests"`
	PhotoPath *string `json:"photo_path,omitempty"`
}

// UserStats is the admin listing row
type UserStats struct {
	User            `gorm:"embedded"`
	DiscussionCount int64 `json:"discussion_count"`
	CommentCount    int64 `json:"comment_count"`
	ResourceCount   int64 `json:"resource_count"`
}
