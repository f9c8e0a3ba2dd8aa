package models

import "time"

// Date and time layouts used for events
const (
	EventDateLayout = "2006-01-02"
	EventTimeLayout = "15:04"
)

type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	EventDate   string    `gorm:"type:varchar(10);not null;index" json:"event_date"`
	EventTime   string    `gorm:"type:varchar(5);not null" json:"event_time"`
	Location    string    `gorm:"type:varchar(200);not null" json:"location"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

type RSVPStatus string

const (
	RSVPAttending    RSVPStatus = "attending"
	RSVPMaybe        RSVPStatus = "maybe"
	RSVPNotAttending RSVPStatus = "not_attending"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPAttending, RSVPMaybe, RSVPNotAttending:
		return true
	}
	return false
}

// RSVP holds at most one row per (event, user)
type RSVP struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	EventID   uint       `gorm:"not null;uniqueIndex:idx_rsvp_event_user" json:"event_id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_rsvp_event_user;index" json:"user_id"`
	Status    RSVPStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (RSVP) TableName() string {
	return "rsvps"
}

type EventSummary struct {
	Event             `gorm:"embedded"`
	OrganizerUsername string `json:"organizer_username"`
	AttendingCount    int64  `json:"attending_count"`
}

type RSVPView struct {
	RSVP     `gorm:"embedded"`
	Username string `json:"username"`
}

type EventDetail struct {
	EventSummary
	RSVPs []RSVPView `json:"rsvps"`
}
