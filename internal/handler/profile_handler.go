package handler

import (
	"net/http"

	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/Baaaki/community-hub/internal/storage"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	files          *storage.FileStore
}

func NewProfileHandler(profileService *service.ProfileService, files *storage.FileStore) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		files:          files,
	}
}

type UpdateProfileRequest struct {
	Bio       string `json:"bio"`
	Interests string `json:"interests"`
}

// GET /api/profile
func (h *ProfileHandler) GetMine(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	h.respondProfile(c, sess.UserID)
}

// GET /api/users/:id/profile
func (h *ProfileHandler) GetUser(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.respondProfile(c, userID)
}

// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.profileService.Update(sess, req.Bio, req.Interests)
	if err != nil {
		respondError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": h.profileJSON(view)})
}

// UploadPhoto takes a multipart "photo" field
// POST /api/profile/photo
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	header, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err, "read upload")
		return
	}
	defer file.Close()

	path, err := h.profileService.UploadPhoto(sess, file, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err, "upload photo")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Profile photo updated",
		"photo_url": h.files.URLPath(UploadsPrefix, path),
	})
}

func (h *ProfileHandler) respondProfile(c *gin.Context, userID uint) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	view, err := h.profileService.Get(sess, userID)
	if err != nil {
		respondError(c, err, "load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": h.profileJSON(view)})
}

func (h *ProfileHandler) profileJSON(view *models.ProfileView) gin.H {
	out := gin.H{
		"user_id":   view.UserID,
		"username":  view.Username,
		"email":     view.Email,
		"role":      view.Role,
		"bio":       view.Bio,
		"interests": view.Interests,
		"photo_url": nil,
	}
	if view.PhotoPath != nil {
		out["photo_url"] = h.files.URLPath(UploadsPrefix, *view.PhotoPath)
	}
	return out
}
