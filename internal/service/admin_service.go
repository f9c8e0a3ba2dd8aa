package service

import (
	"fmt"
	"time"

	"github.com/Baaaki/community-hub/internal/audit"
	"github.com/Baaaki/community-hub/internal/database"
	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/internal/storage"
	"github.com/Baaaki/community-hub/internal/utils"
	"github.com/Baaaki/community-hub/pkg/logger"
	"go.uber.org/zap"
)

// AuditLog is the journal the back-office writes to and reads from
type AuditLog interface {
	audit.Recorder
	Recent(limit int) ([]audit.Entry, error)
	Prune(before time.Time) (int, error)
}

type AdminService struct {
	authService     *AuthService
	userRepo        *repository.UserRepository
	profileRepo     *repository.ProfileRepository
	resourceRepo    *repository.ResourceRepository
	maintenanceRepo *repository.MaintenanceRepository
	analyticsRepo   *repository.AnalyticsRepository
	files           *storage.FileStore
	journal         AuditLog
}

func NewAdminService(
	authService *AuthService,
	userRepo *repository.UserRepository,
	profileRepo *repository.ProfileRepository,
	resourceRepo *repository.ResourceRepository,
	maintenanceRepo *repository.MaintenanceRepository,
	analyticsRepo *repository.AnalyticsRepository,
	files *storage.FileStore,
	journal AuditLog,
) *AdminService {
	return &AdminService{
		authService:     authService,
		userRepo:        userRepo,
		profileRepo:     profileRepo,
		resourceRepo:    resourceRepo,
		maintenanceRepo: maintenanceRepo,
		analyticsRepo:   analyticsRepo,
		files:           files,
		journal:         journal,
	}
}

func (s *AdminService) ListUsers(sess session.Session) ([]models.UserStats, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListWithStats()
	if err != nil {
		logger.Log.Error("Failed to list users", zap.Error(err))
		return nil, err
	}

	logger.Log.Debug("Fetched users with stats", zap.Int("count", len(users)))
	return users, nil
}

func (s *AdminService) CreateUser(sess session.Session, username, email, password string, role models.Role) (*models.User, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	user, err := s.authService.CreateUser(username, email, password, role)
	if err != nil {
		return nil, err
	}
	s.journal.Record(audit.ActionCreateUser, sess.UserID, user.ID, fmt.Sprintf("%s (%s)", user.Username, user.Role))
	return user, nil
}

// SetRole changes a user's role. The last admin cannot be demoted.
func (s *AdminService) SetRole(sess session.Session, userID uint, role models.Role) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if !role.Valid() {
		return invalid("unknown role %q", role)
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if user.Role == role {
		return nil
	}

	if user.Role == models.RoleAdmin {
		admins, err := s.userRepo.CountAdmins()
		if err != nil {
			return err
		}
		if admins <= 1 {
			logger.Log.Warn("Refusing to demote last admin", zap.Uint("user_id", userID))
			return invalid("cannot demote the last admin")
		}
	}

	if _, err := s.userRepo.UpdateRole(userID, role); err != nil {
		logger.Log.Error("Failed to update role", zap.Uint("user_id", userID), zap.Error(err))
		return err
	}

	s.journal.Record(audit.ActionSetRole, sess.UserID, userID, fmt.Sprintf("%s -> %s", user.Role, role))
	logger.Log.Info("Role changed",
		zap.Uint("user_id", userID),
		zap.String("from", string(user.Role)),
		zap.String("to", string(role)),
		zap.Uint("admin_id", sess.UserID),
	)
	return nil
}

// ResetPassword stores a new digest under a fresh salt
func (s *AdminService) ResetPassword(sess session.Session, userID uint, password string) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if password == "" {
		return invalid("password is required")
	}
	if len(password) > 128 {
		return invalid("password too long")
	}

	digest, salt, err := utils.HashPassword(password, "")
	if err != nil {
		return err
	}
	ok, err := s.userRepo.UpdatePassword(userID, digest, salt)
	if err != nil {
		logger.Log.Error("Failed to reset password", zap.Uint("user_id", userID), zap.Error(err))
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.journal.Record(audit.ActionResetPassword, sess.UserID, userID, "")
	logger.Log.Info("Password reset",
		zap.Uint("user_id", userID),
		zap.Uint("admin_id", sess.UserID),
	)
	return nil
}

// DeleteUser runs the user cascade, then removes the user's stored files.
// An admin cannot delete their own account.
func (s *AdminService) DeleteUser(sess session.Session, userID uint) error {
	start := time.Now()
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if userID == sess.UserID {
		logger.Log.Warn("Admin attempted self-deletion", zap.Uint("user_id", userID))
		return ErrForbidden
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	files, err := s.resourceRepo.FilePathsByUser(userID)
	if err != nil {
		return err
	}
	profile, err := s.profileRepo.GetByUserID(userID)
	if err != nil {
		return err
	}
	if profile != nil && profile.PhotoPath != nil {
		files = append(files, *profile.PhotoPath)
	}

	if err := s.userRepo.Delete(userID); err != nil {
		logger.Log.Error("User cascade failed", zap.Uint("user_id", userID), zap.Error(err))
		return notFound(err)
	}

	removed := removeFiles(s.files, files)

	s.journal.Record(audit.ActionDeleteUser, sess.UserID, userID, user.Username)
	logger.Log.Info("User deleted",
		zap.Uint("user_id", userID),
		zap.String("username", user.Username),
		zap.Int("files_removed", removed),
		zap.Uint("admin_id", sess.UserID),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (s *AdminService) IntegrityCheck(sess session.Session) (string, error) {
	if err := requireAdmin(sess); err != nil {
		return "", err
	}
	return s.maintenanceRepo.IntegrityCheck()
}

func (s *AdminService) Vacuum(sess session.Session) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}

	start := time.Now()
	if err := s.maintenanceRepo.Vacuum(); err != nil {
		logger.Log.Error("Vacuum failed", zap.Error(err))
		return err
	}

	s.journal.Record(audit.ActionVacuum, sess.UserID, 0, "")
	logger.Log.Info("Database vacuumed", zap.Duration("duration", time.Since(start)))
	return nil
}

// Stats returns per-table row counts
func (s *AdminService) Stats(sess session.Session) (map[string]int64, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.maintenanceRepo.TableCounts()
}

// Analytics builds the activity report for the period starting at since.
// A nil since covers all time.
func (s *AdminService) Analytics(sess session.Session, since *time.Time) (*models.Analytics, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}

	start := time.Now()
	var from time.Time
	if since != nil {
		from = since.UTC()
	}

	report := &models.Analytics{Since: since}
	var err error
	if report.Users, err = s.analyticsRepo.Users(from); err != nil {
		logger.Log.Error("User analytics failed", zap.Error(err))
		return nil, err
	}
	if report.Content, err = s.analyticsRepo.Content(from); err != nil {
		logger.Log.Error("Content analytics failed", zap.Error(err))
		return nil, err
	}
	if report.Events, err = s.analyticsRepo.Events(from, database.NowUTC()); err != nil {
		logger.Log.Error("Event analytics failed", zap.Error(err))
		return nil, err
	}
	if report.Resources, err = s.analyticsRepo.Resources(from); err != nil {
		logger.Log.Error("Resource analytics failed", zap.Error(err))
		return nil, err
	}

	logger.Log.Debug("Analytics built",
		zap.Timep("since", since),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}

// AuditLog returns up to limit journal entries, newest first
func (s *AdminService) AuditLog(sess session.Session, limit int) ([]audit.Entry, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.journal.Recent(limit)
}

// PruneAudit drops journal entries older than before
func (s *AdminService) PruneAudit(sess session.Session, before time.Time) (int, error) {
	if err := requireAdmin(sess); err != nil {
		return 0, err
	}

	removed, err := s.journal.Prune(before)
	if err != nil {
		logger.Log.Error("Audit prune failed", zap.Error(err))
		return 0, err
	}
	s.journal.Record(audit.ActionPrune, sess.UserID, 0, fmt.Sprintf("removed %d entries before %s", removed, before.UTC().Format(time.RFC3339)))
	return removed, nil
}
