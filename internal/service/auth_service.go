package service

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Baaaki/community-hub/internal/database"
	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/Baaaki/community-hub/internal/utils"
	"github.com/Baaaki/community-hub/pkg/logger"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type AuthService struct {
	userRepo    *repository.UserRepository
	tokens      *utils.TokenIssuer
	environment string
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string, jwtExpiration time.Duration, environment string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokens:      utils.NewTokenIssuer(jwtSecret, jwtExpiration),
		environment: environment,
	}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.environment == "production"
}

// TokenExpiration is how long issued tokens stay valid
func (s *AuthService) TokenExpiration() time.Duration {
	return s.tokens.TTL()
}

// CreateUser stores a new account with a freshly salted digest and an empty
// profile in one transaction.
func (s *AuthService) CreateUser(username, email, password string, role models.Role) (*models.User, error) {
	start := time.Now()
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	logger.Log.Debug("Creating user",
		zap.String("username", username),
		zap.String("email", email),
		zap.String("role", string(role)),
	)

	if role == "" {
		role = models.RoleUser
	}
	if err := validateUserInput(username, email, password, role); err != nil {
		logger.Log.Warn("User validation failed",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(username, email)
	if err != nil {
		logger.Log.Error("Failed to check user existence",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}
	if exists {
		logger.Log.Warn("Username or email already exists",
			zap.String("username", username),
			zap.String("email", email),
		)
		return nil, ErrUserAlreadyExists
	}

	hashStart := time.Now()
	digest, salt, err := utils.HashPassword(password, "")
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}
	hashDuration := time.Since(hashStart)

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: digest,
		Salt:         salt,
		Role:         role,
		CreatedAt:    database.NowUTC(),
	}
	if err := s.userRepo.CreateWithProfile(user); err != nil {
		// lost a race with a concurrent insert of the same name
		if again, checkErr := s.userRepo.ExistsByUsernameOrEmail(username, email); checkErr == nil && again {
			return nil, ErrUserAlreadyExists
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("User created",
		zap.Uint("user_id", user.ID),
		zap.String("username", username),
		zap.String("role", string(role)),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)
	return user, nil
}

// Register creates a regular account and issues a token for it
func (s *AuthService) Register(username, email, password, confirm string) (*models.User, string, error) {
	if password != confirm {
		logger.Log.Warn("Registration password mismatch", zap.String("username", username))
		return nil, "", ErrPasswordMismatch
	}

	user, err := s.CreateUser(username, email, password, models.RoleUser)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate looks the user up by exact username. Unknown usernames and
// wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Authenticate(username, password string) (*models.User, error) {
	start := time.Now()

	logger.Log.Debug("Authenticating user", zap.String("username", username))

	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		logger.Log.Error("Failed to get user by username",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}
	if user == nil {
		logger.Log.Warn("Login failed: user not found", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	verifyStart := time.Now()
	valid, err := utils.VerifyPassword(password, user.Salt, user.PasswordHash)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidHash) {
			logger.Log.Error("Stored credential is corrupt", zap.Uint("user_id", user.ID))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("username", username),
			zap.Uint("user_id", user.ID),
		)
		return nil, ErrInvalidCredentials
	}

	now := database.NowUTC()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		logger.Log.Error("Failed to update last login",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return nil, err
	}
	user.LastLogin = &now

	logger.Log.Info("User authenticated",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)
	return user, nil
}

// Login authenticates and issues a token
func (s *AuthService) Login(username, password string) (*models.User, string, error) {
	user, err := s.Authenticate(username, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", err
	}
	return user, token, nil
}

// IsAdmin reads the stored role; a missing user is simply not an admin
func (s *AuthService) IsAdmin(userID uint) (bool, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.Role == models.RoleAdmin, nil
}

// SessionFor rebuilds a session from the stored user, picking up role changes
// made after a token was issued.
func (s *AuthService) SessionFor(userID uint) (session.Session, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return session.Session{}, err
	}
	if user == nil {
		return session.Session{}, ErrNotFound
	}
	return session.New(user), nil
}

// ValidateToken parses a token and resolves it to a live session
func (s *AuthService) ValidateToken(token string) (session.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return session.Session{}, err
	}
	return s.SessionFor(claims.UserID)
}

func validateUserInput(username, email, password string, role models.Role) error {
	if username == "" {
		return invalid("username is required")
	}
	if len(username) > 50 {
		return invalid("username must be at most 50 characters")
	}
	if !emailRegex.MatchString(email) {
		return invalid("invalid email format")
	}
	if len(email) > 100 {
		return invalid("email too long")
	}
	if password == "" {
		return invalid("password is required")
	}
	if len(password) > 128 {
		return invalid("password too long")
	}
	if !role.Valid() {
		return invalid("unknown role %q", role)
	}
	return nil
}
