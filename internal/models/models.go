package models

// All lists every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&User{}, &Profile{},
		&Discussion{}, &Comment{},
		&Event{}, &RSVP{},
		&Resource{}, &Message{}, &Announcement{},
	}
}
