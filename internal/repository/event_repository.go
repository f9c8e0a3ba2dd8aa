package repository

import (
	"errors"

	"github.com/Baaaki/community-hub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// CreateWithOrganizerRSVP inserts the event and marks its organizer as attending
func (r *EventRepository) CreateWithOrganizerRSVP(event *models.Event) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		return upsertRSVP(tx, &models.RSVP{
			EventID: event.ID,
			UserID:  event.UserID,
			Status:  models.RSVPAttending,
		})
	})
}

func (r *EventRepository) summaries() *gorm.DB {
	return r.db.Table("events").
		Select(`events.*, users.username AS organizer_username,
			(SELECT COUNT(*) FROM rsvps WHERE rsvps.event_id = events.id AND rsvps.status = ?) AS attending_count`,
			models.RSVPAttending).
		Joins("JOIN users ON users.id = events.user_id")
}

// List returns events inside the inclusive date range, soonest first
func (r *EventRepository) List(filter EventFilter) ([]models.EventSummary, error) {
	q := r.summaries()

	if filter.From != "" {
		q = q.Where("events.event_date >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("events.event_date <= ?", filter.To)
	}
	q = whereSearch(q, filter.Search, "events.title", "events.description", "events.location")

	var rows []models.EventSummary
	err := q.Order("events.event_date ASC, events.event_time ASC, events.id ASC").Scan(&rows).Error
	return rows, err
}

// GetByID returns nil, nil when the event does not exist
func (r *EventRepository) GetByID(id uint) (*models.EventSummary, error) {
	var rows []models.EventSummary
	if err := r.summaries().Where("events.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListRSVPs returns responses grouped by status, then username
func (r *EventRepository) ListRSVPs(eventID uint) ([]models.RSVPView, error) {
	var rows []models.RSVPView
	err := r.db.Table("rsvps").
		Select("rsvps.*, users.username").
		Joins("JOIN users ON users.id = rsvps.user_id").
		Where("rsvps.event_id = ?", eventID).
		Order("rsvps.status ASC, users.username ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *EventRepository) GetRSVP(eventID, userID uint) (*models.RSVP, error) {
	var rsvp models.RSVP
	err := r.db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&rsvp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rsvp, nil
}

// UpsertRSVP inserts the (event, user) response or updates its status in place
func (r *EventRepository) UpsertRSVP(rsvp *models.RSVP) error {
	return upsertRSVP(r.db, rsvp)
}

func upsertRSVP(db *gorm.DB, rsvp *models.RSVP) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(rsvp).Error
}

// Delete removes the event and its RSVPs in one transaction
func (r *EventRepository) Delete(id uint) error {
	return DeleteCascade(r.db, EntityEvent, id)
}
