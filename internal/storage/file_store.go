// Package storage persists uploaded bytes under a fixed root directory.
// Files are written to a temp name and renamed into place, so a failed
// upload never leaves a partial file that a database row could point at.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Baaaki/community-hub/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	ProfilePhotoDir = "profile_photos"
	ResourceDir     = "resources"

	DefaultPhotoSize = 300
	// MaxPhotoPixels caps width*height of an accepted photo before decoding
	MaxPhotoPixels = 25_000_000
	photoQuality   = 90
	timestampLayout  = "20060102_150405"
)

var (
	ErrInvalidType = errors.New("invalid file type")
	ErrDecode      = errors.New("could not decode image")
	ErrEmptyUpload = errors.New("empty upload")
	ErrOutsideRoot = errors.New("path outside upload root")
	ErrTooLarge    = errors.New("upload too large")
)

type FileStore struct {
	root      string
	photoSize int
	maxSize   int64
	now       func() time.Time
}

// NewFileStore prepares root and its two subdirectories.
// photoSize <= 0 selects DefaultPhotoSize; maxSize <= 0 disables the size cap.
func NewFileStore(root string, photoSize int, maxSize int64) (*FileStore, error) {
	if photoSize <= 0 {
		photoSize = DefaultPhotoSize
	}
	for _, dir := range []string{ProfilePhotoDir, ResourceDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, err
		}
	}
	return &FileStore{
		root:      root,
		photoSize: photoSize,
		maxSize:   maxSize,
		now:       time.Now,
	}, nil
}

func (s *FileStore) Root() string {
	return s.root
}

// SaveResource stores an arbitrary upload under resources/ and returns its path.
// mediaType must match an entry of allowed, either the full type or its subtype.
func (s *FileStore) SaveResource(r io.Reader, filename, mediaType string, allowed []string) (string, error) {
	data, err := s.readAll(r)
	if err != nil {
		return "", err
	}

	mediaType = normalizeMediaType(mediaType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = normalizeMediaType(mimetype.Detect(data).String())
	}
	if !typeAllowed(mediaType, allowed) {
		logger.Log.Warn("Rejected upload type",
			zap.String("filename", filename),
			zap.String("media_type", mediaType),
		)
		return "", fmt.Errorf("%w: %s", ErrInvalidType, mediaType)
	}

	name := fmt.Sprintf("%s_%s", s.stamp(), sanitizeFilename(filename))
	path := filepath.Join(s.root, ResourceDir, name)
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}

	logger.Log.Info("Resource file stored",
		zap.String("path", path),
		zap.String("media_type", mediaType),
		zap.Int("bytes", len(data)),
	)
	return path, nil
}

// DefaultPhotoTypes is used when SaveProfilePhoto gets an empty allow-list
var DefaultPhotoTypes = []string{"jpeg", "png"}

// SaveProfilePhoto decodes the upload, resizes it to a square and stores it as
// JPEG. Both the declared type and the decoded format must be in allowed.
// The raw upload is never written; any rejection writes nothing.
func (s *FileStore) SaveProfilePhoto(userID uint, r io.Reader, mediaType string, allowed []string) (string, error) {
	if len(allowed) == 0 {
		allowed = DefaultPhotoTypes
	}
	mediaType = normalizeMediaType(mediaType)
	if !strings.HasPrefix(mediaType, "image/") || !typeAllowed(mediaType, allowed) {
		return "", fmt.Errorf("%w: %s", ErrInvalidType, mediaType)
	}

	data, err := s.readAll(r)
	if err != nil {
		return "", err
	}

	// headers only, so a small file declaring a huge canvas is refused before allocation
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		logger.Log.Warn("Profile photo header unreadable",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !typeAllowed("image/"+format, allowed) {
		return "", fmt.Errorf("%w: decoded %s", ErrInvalidType, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPhotoPixels {
		logger.Log.Warn("Profile photo dimensions refused",
			zap.Uint("user_id", userID),
			zap.Int("width", cfg.Width),
			zap.Int("height", cfg.Height),
		)
		return "", fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Log.Warn("Profile photo decode failed",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, s.photoSize, s.photoSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: photoQuality}); err != nil {
		return "", err
	}

	name := fmt.Sprintf("profile_%d_%s.jpg", userID, s.stamp())
	path := filepath.Join(s.root, ProfilePhotoDir, name)
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}

	logger.Log.Info("Profile photo stored",
		zap.Uint("user_id", userID),
		zap.String("source_format", format),
		zap.String("path", path),
	)
	return path, nil
}

// Remove deletes a stored file. Paths outside the root are refused and a
// missing file is not an error.
func (s *FileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if !s.contains(path) {
		return ErrOutsideRoot
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URLPath maps a stored path to its location under prefix, or "" when the
// path does not belong to this store.
func (s *FileStore) URLPath(prefix, path string) string {
	rel, ok := s.relative(path)
	if !ok {
		return ""
	}
	return strings.TrimSuffix(prefix, "/") + "/" + filepath.ToSlash(rel)
}

func (s *FileStore) contains(path string) bool {
	_, ok := s.relative(path)
	return ok
}

func (s *FileStore) relative(path string) (string, bool) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return rel, true
}

func (s *FileStore) readAll(r io.Reader) ([]byte, error) {
	if s.maxSize > 0 {
		r = io.LimitReader(r, s.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// stamp is second-resolution time plus nanoseconds, so same-second uploads do not collide
func (s *FileStore) stamp() string {
	t := s.now()
	return fmt.Sprintf("%s_%09d", t.Format(timestampLayout), t.Nanosecond())
}

func writeAtomic(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), ".upload-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func normalizeMediaType(mediaType string) string {
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// typeAllowed matches "application/pdf" against entries like "application/pdf" or "pdf".
// "jpg" is accepted as a spelling of "jpeg".
func typeAllowed(mediaType string, allowed []string) bool {
	subtype := mediaType
	if i := strings.Index(mediaType, "/"); i >= 0 {
		subtype = mediaType[i+1:]
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "jpg" {
			a = "jpeg"
		} else if a == "image/jpg" {
			a = "image/jpeg"
		}
		if a == mediaType || a == subtype {
			return true
		}
	}
	return false
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "upload"
	}
	return name
}
