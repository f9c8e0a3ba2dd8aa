package service

import (
	"io"
	"time"

	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/internal/storage"
	"github.com/Baaaki/community-hub/pkg/logger"
	"go.uber.org/zap"
)

type ProfileService struct {
	profileRepo *repository.ProfileRepository
	files       *storage.FileStore
	photoTypes  []string
}

// NewProfileService takes the image type allow-list for photos; empty selects
// storage.DefaultPhotoTypes
func NewProfileService(profileRepo *repository.ProfileRepository, files *storage.FileStore, photoTypes []string) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		files:       files,
		photoTypes:  photoTypes,
	}
}

// Get returns the public profile of any user
func (s *ProfileService) Get(sess session.Session, userID uint) (*models.ProfileView, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	view, err := s.profileRepo.GetView(userID)
	if err != nil {
		logger.Log.Error("Failed to load profile",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}
	if view == nil {
		return nil, ErrNotFound
	}
	return view, nil
}

// Update changes the acting user's own bio and interests
func (s *ProfileService) Update(sess session.Session, bio, interests string) (*models.ProfileView, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	ok, err := s.profileRepo.UpdateText(sess.UserID, bio, interests)
	if err != nil {
		logger.Log.Error("Failed to update profile",
			zap.Uint("user_id", sess.UserID),
			zap.Error(err),
		)
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	logger.Log.Info("Profile updated", zap.Uint("user_id", sess.UserID))
	return s.profileRepo.GetView(sess.UserID)
}

// UploadPhoto normalizes the image and swaps it in. A failed decode leaves the
// stored path untouched; a failed row update removes the new file.
func (s *ProfileService) UploadPhoto(sess session.Session, r io.Reader, mediaType string) (string, error) {
	start := time.Now()
	if err := requireSession(sess); err != nil {
		return "", err
	}

	previous, err := s.profileRepo.GetByUserID(sess.UserID)
	if err != nil {
		return "", err
	}
	if previous == nil {
		return "", ErrNotFound
	}

	path, err := s.files.SaveProfilePhoto(sess.UserID, r, mediaType, s.photoTypes)
	if err != nil {
		logger.Log.Warn("Profile photo rejected",
			zap.Uint("user_id", sess.UserID),
			zap.Error(err),
		)
		return "", err
	}

	ok, err := s.profileRepo.UpdatePhotoPath(sess.UserID, path)
	if err != nil || !ok {
		if rmErr := s.files.Remove(path); rmErr != nil {
			logger.Log.Error("Failed to remove orphaned photo",
				zap.String("path", path),
				zap.Error(rmErr),
			)
		}
		if err == nil {
			err = ErrNotFound
		}
		logger.Log.Error("Failed to store photo path",
			zap.Uint("user_id", sess.UserID),
			zap.Error(err),
		)
		return "", err
	}

	if previous.PhotoPath != nil && *previous.PhotoPath != path {
		if err := s.files.Remove(*previous.PhotoPath); err != nil {
			logger.Log.Warn("Failed to remove previous photo",
				zap.String("path", *previous.PhotoPath),
				zap.Error(err),
			)
		}
	}

	logger.Log.Info("Profile photo updated",
		zap.Uint("user_id", sess.UserID),
		zap.String("path", path),
		zap.Duration("duration", time.Since(start)),
	)
	return path, nil
}
