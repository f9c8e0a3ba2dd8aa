package models

import "time"

type ResourceType string

const (
	ResourceFile ResourceType = "File"
	ResourceLink ResourceType = "Link"
	ResourceNote ResourceType = "Note"
)

func (t ResourceType) Valid() bool {
	return t == ResourceFile || t == ResourceLink || t == ResourceNote
}

// Resource is a shared artifact. FilePath is set only for File, URL only for Link.
type Resource struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;index" json:"user_id"`
	Title        string       `gorm:"type:varchar(200);not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	ResourceType ResourceType `gorm:"type:varchar(10);not null;index" json:"resource_type"`
	FilePath     *string      `gorm:"type:varchar(512)" json:"file_path,omitempty"`
	URL          *string      `gorm:"type:varchar(2048)" json:"url,omitempty"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

type ResourceSummary struct {
	Resource       `gorm:"embedded"`
	OwnerUsername string `json:"owner_username"`
}
