// Package session carries the identity of the acting user into every
// service call. Nothing in the core reads identity from ambient state.
package session

import "github.com/Baaaki/community-hub/internal/models"

type Session struct {
	UserID   uint
	Username string
	Role     models.Role
}

func New(user *models.User) Session {
	return Session{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}

func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// CanModify reports whether the session may change a row owned by ownerID
func (s Session) CanModify(ownerID uint) bool {
	return s.UserID == ownerID || s.IsAdmin()
}

// Valid reports whether the session identifies a user at all
func (s Session) Valid() bool {
	return s.UserID != 0
}
