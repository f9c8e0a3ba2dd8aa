package handler

import (
	"net/http"

	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/Baaaki/community-hub/internal/storage"
	"github.com/gin-gonic/gin"
)

type ResourceHandler struct {
	resourceService *service.ResourceService
	files           *storage.FileStore
}

func NewResourceHandler(resourceService *service.ResourceService, files *storage.FileStore) *ResourceHandler {
	return &ResourceHandler{
		resourceService: resourceService,
		files:           files,
	}
}

// CreateResourceRequest covers Link and Note resources; files go through CreateFile
type CreateResourceRequest struct {
	Type        models.ResourceType `json:"resource_type" binding:"required"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	URL         string              `json:"url"`
}

// GET /api/resources?type=&search=&sort=
func (h *ResourceHandler) List(c *gin.Context) {
	rows, err := h.resourceService.List(repository.ResourceFilter{
		Type:   c.Query("type"),
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	})
	if err != nil {
		respondError(c, err, "list resources")
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, gin.H{
			"resource":       rows[i].Resource,
			"owner_username": rows[i].OwnerUsername,
			"file_url":       h.fileURL(&rows[i].Resource),
		})
	}
	c.JSON(http.StatusOK, gin.H{"resources": out})
}

// GET /api/resources/types
func (h *ResourceHandler) Types(c *gin.Context) {
	types, err := h.resourceService.Types()
	if err != nil {
		respondError(c, err, "list resource types")
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": nonNil(types)})
}

// GET /api/resources/:id
func (h *ResourceHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	resource, err := h.resourceService.Get(id)
	if err != nil {
		respondError(c, err, "load resource")
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource": resource, "file_url": h.fileURL(resource)})
}

// Create adds a Link or Note
// POST /api/resources
func (h *ResourceHandler) Create(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var (
		resource *models.Resource
		err      error
	)
	switch req.Type {
	case models.ResourceLink:
		resource, err = h.resourceService.CreateLink(sess, req.Title, req.Description, req.URL)
	case models.ResourceNote:
		resource, err = h.resourceService.CreateNote(sess, req.Title, req.Description)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource_type must be Link or Note"})
		return
	}
	if err != nil {
		respondError(c, err, "create resource")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"resource": resource})
}

// CreateFile takes multipart fields "title", "description" and "file"
// POST /api/resources/file
func (h *ResourceHandler) CreateFile(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err, "read upload")
		return
	}
	defer file.Close()

	resource, err := h.resourceService.CreateFile(
		sess,
		c.PostForm("title"),
		c.PostForm("description"),
		file,
		header.Filename,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		respondError(c, err, "upload resource")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"resource": resource, "file_url": h.fileURL(resource)})
}

// DELETE /api/resources/:id
func (h *ResourceHandler) Delete(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.resourceService.Delete(sess, id); err != nil {
		respondError(c, err, "delete resource")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Resource deleted"})
}

func (h *ResourceHandler) fileURL(resource *models.Resource) *string {
	if resource.FilePath == nil {
		return nil
	}
	url := h.files.URLPath(UploadsPrefix, *resource.FilePath)
	return &url
}
