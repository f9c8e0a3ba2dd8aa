package handler

import (
	"net/http"

	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/gin-gonic/gin"
)

type DiscussionHandler struct {
	discussionService *service.DiscussionService
}

func NewDiscussionHandler(discussionService *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{discussionService: discussionService}
}

type CreateDiscussionRequest struct {
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body" binding:"required"`
	Category string `json:"category" binding:"required"`
}

type CreateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// GET /api/discussions?category=&since=&search=&sort=
func (h *DiscussionHandler) List(c *gin.Context) {
	since, ok := sinceQuery(c)
	if !ok {
		return
	}

	rows, err := h.discussionService.List(repository.DiscussionFilter{
		Category: c.Query("category"),
		Since:    since,
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	})
	if err != nil {
		respondError(c, err, "list discussions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"discussions": nonNil(rows)})
}

// GET /api/discussions/categories
func (h *DiscussionHandler) Categories(c *gin.Context) {
	categories, err := h.discussionService.Categories()
	if err != nil {
		respondError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": nonNil(categories)})
}

// GET /api/discussions/:id
func (h *DiscussionHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.discussionService.Get(id)
	if err != nil {
		respondError(c, err, "load discussion")
		return
	}
	detail.Comments = nonNil(detail.Comments)
	c.JSON(http.StatusOK, gin.H{"discussion": detail})
}

// POST /api/discussions
func (h *DiscussionHandler) Create(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req CreateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	discussion, err := h.discussionService.Create(sess, req.Title, req.Body, req.Category)
	if err != nil {
		respondError(c, err, "create discussion")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"discussion": discussion})
}

// DELETE /api/discussions/:id
func (h *DiscussionHandler) Delete(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.discussionService.Delete(sess, id); err != nil {
		respondError(c, err, "delete discussion")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Discussion deleted"})
}

// POST /api/discussions/:id/comments
func (h *DiscussionHandler) AddComment(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := h.discussionService.AddComment(sess, id, req.Body)
	if err != nil {
		respondError(c, err, "add comment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// DELETE /api/comments/:id
func (h *DiscussionHandler) DeleteComment(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.discussionService.DeleteComment(sess, id); err != nil {
		respondError(c, err, "delete comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
