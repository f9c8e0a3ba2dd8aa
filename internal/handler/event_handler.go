package handler

import (
	"net/http"

	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService *service.EventService
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type CreateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD
	Time        string `json:"time" binding:"required"` // HH:MM
	Location    string `json:"location" binding:"required"`
}

type RSVPRequest struct {
	Status models.RSVPStatus `json:"status" binding:"required"`
}

// GET /api/events?from=&to=&search=
func (h *EventHandler) List(c *gin.Context) {
	rows, err := h.eventService.List(repository.EventFilter{
		From:   c.Query("from"),
		To:     c.Query("to"),
		Search: c.Query("search"),
	})
	if err != nil {
		respondError(c, err, "list events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": nonNil(rows)})
}

// GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.eventService.Get(id)
	if err != nil {
		respondError(c, err, "load event")
		return
	}
	detail.RSVPs = nonNil(detail.RSVPs)
	c.JSON(http.StatusOK, gin.H{"event": detail})
}

// POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	event, err := h.eventService.Create(sess, req.Title, req.Description, req.Date, req.Time, req.Location)
	if err != nil {
		respondError(c, err, "create event")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// PUT /api/events/:id/rsvp
func (h *EventHandler) RSVP(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rsvp, err := h.eventService.RSVP(sess, id, req.Status)
	if err != nil {
		respondError(c, err, "record RSVP")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rsvp": rsvp})
}

// GET /api/events/:id/rsvp
func (h *EventHandler) MyRSVP(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	rsvp, err := h.eventService.MyRSVP(sess, id)
	if err != nil {
		respondError(c, err, "load RSVP")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rsvp": rsvp})
}

// DELETE /api/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.eventService.Delete(sess, id); err != nil {
		respondError(c, err, "delete event")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}
