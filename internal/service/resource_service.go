package service

import (
	"io"
	"net/url"
	"strings"

	"github.com/Baaaki/community-hub/internal/audit"
	"github.com/Baaaki/community-hub/internal/database"
	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/internal/storage"
	"github.com/Baaaki/community-hub/pkg/logger"
	"go.uber.org/zap"
)

type ResourceService struct {
	resourceRepo *repository.ResourceRepository
	files        *storage.FileStore
	allowed      []string
	recorder     audit.Recorder
}

// NewResourceService takes the media type allow-list for file uploads
func NewResourceService(resourceRepo *repository.ResourceRepository, files *storage.FileStore, allowed []string, recorder audit.Recorder) *ResourceService {
	return &ResourceService{
		resourceRepo: resourceRepo,
		files:        files,
		allowed:      allowed,
		recorder:     recorder,
	}
}

func (s *ResourceService) List(filter repository.ResourceFilter) ([]models.ResourceSummary, error) {
	if filter.Type != "" && !models.ResourceType(filter.Type).Valid() {
		return nil, invalid("unknown resource type %q", filter.Type)
	}
	switch filter.Sort {
	case "", repository.SortNewest, repository.SortOldest, repository.SortTitle:
	default:
		return nil, invalid("unknown sort %q", filter.Sort)
	}

	rows, err := s.resourceRepo.List(filter)
	if err != nil {
		logger.Log.Error("Failed to list resources", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

func (s *ResourceService) Get(id uint) (*models.Resource, error) {
	resource, err := s.resourceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, ErrNotFound
	}
	return resource, nil
}

func (s *ResourceService) Types() ([]string, error) {
	return s.resourceRepo.Types()
}

func (s *ResourceService) CreateLink(sess session.Session, title, description, rawURL string) (*models.Resource, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	title, rawURL = strings.TrimSpace(title), strings.TrimSpace(rawURL)
	if err := required("title", title, "url", rawURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, invalid("url must be an absolute http(s) URL")
	}

	resource := &models.Resource{
		UserID:       sess.UserID,
		Title:        title,
		Description:  strings.TrimSpace(description),
		ResourceType: models.ResourceLink,
		URL:          &rawURL,
	}
	return s.create(sess, resource)
}

// CreateNote stores free text; the note body lives in Description
func (s *ResourceService) CreateNote(sess session.Session, title, text string) (*models.Resource, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	title, text = strings.TrimSpace(title), strings.TrimSpace(text)
	if err := required("title", title, "text", text); err != nil {
		return nil, err
	}

	resource := &models.Resource{
		UserID:       sess.UserID,
		Title:        title,
		Description:  text,
		ResourceType: models.ResourceNote,
	}
	return s.create(sess, resource)
}

// CreateFile stores the upload first and removes it again if the row insert fails
func (s *ResourceService) CreateFile(sess session.Session, title, description string, r io.Reader, filename, mediaType string) (*models.Resource, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if err := required("title", title, "filename", filename); err != nil {
		return nil, err
	}

	path, err := s.files.SaveResource(r, filename, mediaType, s.allowed)
	if err != nil {
		logger.Log.Warn("Resource upload rejected",
			zap.Uint("user_id", sess.UserID),
			zap.String("filename", filename),
			zap.Error(err),
		)
		return nil, err
	}

	resource := &models.Resource{
		UserID:       sess.UserID,
		Title:        title,
		Description:  strings.TrimSpace(description),
		ResourceType: models.ResourceFile,
		FilePath:     &path,
	}
	created, err := s.create(sess, resource)
	if err != nil {
		if rmErr := s.files.Remove(path); rmErr != nil {
			logger.Log.Error("Failed to remove orphaned upload", zap.String("path", path), zap.Error(rmErr))
		}
		return nil, err
	}
	return created, nil
}

func (s *ResourceService) create(sess session.Session, resource *models.Resource) (*models.Resource, error) {
	resource.CreatedAt = database.NowUTC()
	if err := s.resourceRepo.Create(resource); err != nil {
		logger.Log.Error("Failed to create resource",
			zap.Uint("user_id", sess.UserID),
			zap.String("type", string(resource.ResourceType)),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Resource created",
		zap.Uint("resource_id", resource.ID),
		zap.Uint("user_id", sess.UserID),
		zap.String("type", string(resource.ResourceType)),
	)
	return resource, nil
}

// Delete removes the row, then best-effort removes its stored file. Owner or admin only.
func (s *ResourceService) Delete(sess session.Session, id uint) error {
	if err := requireSession(sess); err != nil {
		return err
	}

	resource, err := s.resourceRepo.GetByID(id)
	if err != nil {
		return err
	}
	if resource == nil {
		return ErrNotFound
	}
	if !sess.CanModify(resource.UserID) {
		logger.Log.Warn("Resource delete forbidden",
			zap.Uint("resource_id", id),
			zap.Uint("user_id", sess.UserID),
		)
		return ErrForbidden
	}

	if err := s.resourceRepo.Delete(id); err != nil {
		return notFound(err)
	}
	recordModeration(s.recorder, sess, audit.ActionDeleteResource, resource.UserID, id, resource.Title)

	if resource.FilePath != nil {
		removeFiles(s.files, []string{*resource.FilePath})
	}

	logger.Log.Info("Resource deleted",
		zap.Uint("resource_id", id),
		zap.Uint("deleted_by", sess.UserID),
	)
	return nil
}

// removeFiles deletes stored files after their rows are gone and reports how
// many were removed. Failures are logged; the rows are already deleted.
func removeFiles(files *storage.FileStore, paths []string) int {
	removed := 0
	for _, p := range paths {
		if err := files.Remove(p); err != nil {
			logger.Log.Warn("Failed to remove stored file", zap.String("path", p), zap.Error(err))
			continue
		}
		removed++
	}
	return removed
}
