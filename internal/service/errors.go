package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Baaaki/community-hub/internal/audit"
	"github.com/Baaaki/community-hub/internal/broker"
	"github.com/Baaaki/community-hub/internal/session"
	"gorm.io/gorm"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserAlreadyExists  = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
)

const publishTimeout = 2 * time.Second

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// required fails with ErrInvalidInput on the first blank value, given as name, value pairs
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return invalid("%s is required", pairs[i])
		}
	}
	return nil
}

func requireSession(sess session.Session) error {
	if !sess.Valid() {
		return ErrForbidden
	}
	return nil
}

func requireAdmin(sess session.Session) error {
	if !sess.Valid() || !sess.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// notFound maps the cascade's missing-root error to ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// recordModeration journals a delete only when an admin removed a row owned by
// someone else. Owners deleting their own content are not audited.
func recordModeration(rec audit.Recorder, sess session.Session, action string, ownerID, targetID uint, detail string) {
	if rec == nil || !sess.IsAdmin() || ownerID == sess.UserID {
		return
	}
	rec.Record(action, sess.UserID, targetID, detail)
}

func publish(notifier broker.Notifier, n broker.Notification) {
	if notifier == nil {
		return
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	notifier.Publish(ctx, n)
}
