package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Baaaki/community-hub/internal/middleware"
	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/internal/storage"
	"github.com/Baaaki/community-hub/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadsPrefix is the URL prefix stored files are served under
const UploadsPrefix = "/uploads"

// respondError maps service and storage errors to a status code. Anything
// unrecognised is logged and hidden behind a generic 500 body.
func respondError(c *gin.Context, err error, action string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, storage.ErrInvalidType),
		errors.Is(err, storage.ErrDecode),
		errors.Is(err, storage.ErrEmptyUpload):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, storage.ErrOutsideRoot):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUserAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	}

	if status == http.StatusInternalServerError {
		logger.Log.Error("Request failed",
			zap.String("action", action),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "Failed to " + action})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	logger.Log.Debug("Request parsing failed",
		zap.String("path", c.FullPath()),
		zap.String("ip", c.ClientIP()),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}

// currentSession returns the caller's session. Routes are mounted behind
// AuthMiddleware, so a miss is answered with 401.
func currentSession(c *gin.Context) (session.Session, bool) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return sess, ok
}

// idParam parses a positive integer path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// sinceQuery accepts either a date or an RFC 3339 timestamp
func sinceQuery(c *gin.Context) (*time.Time, bool) {
	raw := c.Query("since")
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, models.EventDateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since parameter"})
	return nil, false
}

func userJSON(user *models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"role":       user.Role,
		"created_at": user.CreatedAt,
		"last_login": user.LastLogin,
	}
}

// nonNil keeps empty listings encoding as [] instead of null
func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
