// Package broker fans out user-facing notifications over Redis pub/sub so
// every server instance can push them to its own websocket clients.
package broker

import (
	"context"
	"time"
)

// Channel is the Redis pub/sub channel notifications travel on
const Channel = "community:notifications"

type NotificationType string

const (
	TypeDirectMessage     NotificationType = "direct_message"
	TypeAnnouncement      NotificationType = "announcement"
	TypeEventCreated      NotificationType = "event_created"
	TypeDiscussionCreated NotificationType = "discussion_created"
)

// Notification is one fan-out event. RecipientID 0 means broadcast.
type Notification struct {
	Type        NotificationType `json:"type"`
	RecipientID uint             `json:"recipient_id"`
	ActorID     uint             `json:"actor_id"`
	ActorName   string           `json:"actor_name"`
	Title       string           `json:"title,omitempty"`
	ReferenceID uint             `json:"reference_id"`
	Timestamp   time.Time        `json:"timestamp"`
}

// For reports whether userID should receive n
func (n Notification) For(userID uint) bool {
	return n.RecipientID == 0 || n.RecipientID == userID
}

// Notifier publishes and subscribes to notifications
type Notifier interface {
	// Publish is best-effort: implementations log failures instead of returning them.
	Publish(ctx context.Context, n Notification)
	// Subscribe streams notifications until ctx is cancelled, then closes the channel.
	Subscribe(ctx context.Context) (<-chan Notification, error)
	Close() error
}

// NopNotifier drops every notification and never delivers any
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, Notification) {}

func (NopNotifier) Subscribe(ctx context.Context) (<-chan Notification, error) {
	ch := make(chan Notification)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (NopNotifier) Close() error { return nil }
