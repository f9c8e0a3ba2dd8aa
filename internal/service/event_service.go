package service

import (
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

type EventService struct {
	eventRepo *repository.EventRepository
	notifier  broker.Notifier
	recorder  audit.Recorder
}

func NewEventService(eventRepo *repository.EventRepository, notifier broker.Notifier, recorder audit.Recorder) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		notifier:  notifier,
		recorder:  recorder,
	}
}

// List returns events in the inclusive date range ordered by date, then time
func (s *EventService) List(filter repository.EventFilter) ([]models.EventSummary, error) {
	for _, d := range []string{filter.From, filter.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.EventDateLayout, d); err != nil {
			return nil, invalid("date %q must be YYYY-MM-DD", d)
		}
	}

	rows, err := s.eventRepo.List(filter)
	if err != nil {
		logger.Log.Error("Failed to list events", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

// Get returns the event with its RSVPs ordered by status, then username
func (s *EventService) Get(id uint) (*models.EventDetail, error) {
	summary, err := s.eventRepo.GetByID(id)
	if err != nil {
		logger.Log.Error("Failed to load event", zap.Uint("event_id", id), zap.Error(err))
		return nil, err
	}
	if summary == nil {
		return nil, ErrNotFound
	}

	rsvps, err := s.eventRepo.ListRSVPs(id)
	if err != nil {
		return nil, err
	}
	return &models.EventDetail{EventSummary: *summary, RSVPs: rsvps}, nil
}

// Create stores the event and RSVPs its organizer as attending in one transaction
func (s *EventService) Create(sess session.Session, title, description, date, clock, location string) (*models.Event, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	title, description, location = strings.TrimSpace(title), strings.TrimSpace(description), strings.TrimSpace(location)
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if err := required("title", title, "description", description, "date", date, "time", clock, "location", location); err != nil {
		logger.Log.Warn("Event validation failed", zap.Uint("user_id", sess.UserID), zap.Error(err))
		return nil, err
	}
	if _, err := time.Parse(models.EventDateLayout, date); err != nil {
		return nil, invalid("date %q must be YYYY-MM-DD", date)
	}
	if _, err := time.Parse(models.EventTimeLayout, clock); err != nil {
		return nil, invalid("time %q must be HH:MM", clock)
	}

	event := &models.Event{
		UserID:      sess.UserID,
		Title:       title,
		Description: description,
		EventDate:   date,
		EventTime:   clock,
		Location:    location,
		CreatedAt:   database.NowUTC(),
	}
	if err := s.eventRepo.CreateWithOrganizerRSVP(event); err != nil {
		logger.Log.Error("Failed to create event", zap.Uint("user_id", sess.UserID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Event created",
		zap.Uint("event_id", event.ID),
		zap.Uint("organizer_id", sess.UserID),
		zap.String("date", date),
	)

	publish(s.notifier, broker.Notification{
		Type:        broker.TypeEventCreated,
		ActorID:     sess.UserID,
		ActorName:   sess.Username,
		Title:       title,
		ReferenceID: event.ID,
	})
	return event, nil
}

// RSVP records the acting user's response, replacing any earlier one
func (s *EventService) RSVP(sess session.Session, eventID uint, status models.RSVPStatus) (*models.RSVP, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, invalid("unknown RSVP status %q", status)
	}

	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrNotFound
	}

	rsvp := &models.RSVP{
		EventID: eventID,
		UserID:  sess.UserID,
		Status:  status,
	}
	if err := s.eventRepo.UpsertRSVP(rsvp); err != nil {
		logger.Log.Error("Failed to record RSVP",
			zap.Uint("event_id", eventID),
			zap.Uint("user_id", sess.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("RSVP recorded",
		zap.Uint("event_id", eventID),
		zap.Uint("user_id", sess.UserID),
		zap.String("status", string(status)),
	)
	return s.eventRepo.GetRSVP(eventID, sess.UserID)
}

// MyRSVP returns nil, nil when the user has not responded
func (s *EventService) MyRSVP(sess session.Session, eventID uint) (*models.RSVP, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	return s.eventRepo.GetRSVP(eventID, sess.UserID)
}

// Delete removes an event and its RSVPs. Organizer or admin only.
func (s *EventService) Delete(sess session.Session, id uint) error {
	if err := requireSession(sess); err != nil {
		return err
	}

	event, err := s.eventRepo.GetByID(id)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrNotFound
	}
	if !sess.CanModify(event.UserID) {
		logger.Log.Warn("Event delete forbidden",
			zap.Uint("event_id", id),
			zap.Uint("user_id", sess.UserID),
		)
		return ErrForbidden
	}

	if err := s.eventRepo.Delete(id); err != nil {
		logger.Log.Error("Event cascade failed", zap.Uint("event_id", id), zap.Error(err))
		return notFound(err)
	}
	recordModeration(s.recorder, sess, audit.ActionDeleteEvent, event.UserID, id, event.Title)

	logger.Log.Info("Event deleted",
		zap.Uint("event_id", id),
		zap.Uint("deleted_by", sess.UserID),
	)
	return nil
}
