package handler

import (
	"net/http"

	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/gin-gonic/gin"
)

type AnnouncementHandler struct {
	announcementService *service.AnnouncementService
}

func NewAnnouncementHandler(announcementService *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

type CreateAnnouncementRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// GET /api/announcements?since=&search=
func (h *AnnouncementHandler) List(c *gin.Context) {
	since, ok := sinceQuery(c)
	if !ok {
		return
	}

	rows, err := h.announcementService.List(repository.AnnouncementFilter{
		Since:  since,
		Search: c.Query("search"),
	})
	if err != nil {
		respondError(c, err, "list announcements")
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": nonNil(rows)})
}

// GET /api/announcements/:id
func (h *AnnouncementHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	row, err := h.announcementService.Get(id)
	if err != nil {
		respondError(c, err, "load announcement")
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcement": row})
}

// POST /api/announcements (admin)
func (h *AnnouncementHandler) Create(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	announcement, err := h.announcementService.Create(sess, req.Title, req.Body)
	if err != nil {
		respondError(c, err, "create announcement")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"announcement": announcement})
}

// DELETE /api/announcements/:id (admin)
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.announcementService.Delete(sess, id); err != nil {
		respondError(c, err, "delete announcement")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Announcement deleted"})
}
