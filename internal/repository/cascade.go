package repository

import (
	"database/sql"
	"fmt"

	"github.com/Baaaki/community-hub/internal/models"
	"gorm.io/gorm"
)

// Entity names a deletable root row
type Entity string

const (
	EntityUser         Entity = "user"
	EntityDiscussion   Entity = "discussion"
	EntityComment      Entity = "comment"
	EntityEvent        Entity = "event"
	EntityResource     Entity = "resource"
	EntityMessage      Entity = "message"
	EntityAnnouncement Entity = "announcement"
)

// cascadeStep deletes rows of model matching where, with @id bound to the root id
type cascadeStep struct {
	model interface{}
	where string
}

// cascades lists, per root entity, every table that references it, children
// first. The final step always deletes the root row itself.
var cascades = map[Entity][]cascadeStep{
	EntityUser: {
		{&models.Comment{}, "user_id = @id OR discussion_id IN (SELECT id FROM discussions WHERE user_id = @id)"},
		{&models.Discussion{}, "user_id = @id"},
		{&models.RSVP{}, "user_id = @id OR event_id IN (SELECT id FROM events WHERE user_id = @id)"},
		{&models.Event{}, "user_id = @id"},
		{&models.Resource{}, "user_id = @id"},
		{&models.Message{}, "sender_id = @id OR receiver_id = @id"},
		{&models.Announcement{}, "user_id = @id"},
		{&models.Profile{}, "user_id = @id"},
		{&models.User{}, "id = @id"},
	},
	EntityDiscussion: {
		{&models.Comment{}, "discussion_id = @id"},
		{&models.Discussion{}, "id = @id"},
	},
	EntityEvent: {
		{&models.RSVP{}, "event_id = @id"},
		{&models.Event{}, "id = @id"},
	},
	EntityComment:      {{&models.Comment{}, "id = @id"}},
	EntityResource:     {{&models.Resource{}, "id = @id"}},
	EntityMessage:      {{&models.Message{}, "id = @id"}},
	EntityAnnouncement: {{&models.Announcement{}, "id = @id"}},
}

// DeleteCascade removes the root row and everything referencing it in one
// transaction. A missing root rolls the transaction back and returns
// gorm.ErrRecordNotFound; any failing step rolls back every earlier step.
func DeleteCascade(db *gorm.DB, entity Entity, id uint) error {
	steps, ok := cascades[entity]
	if !ok {
		return fmt.Errorf("no cascade registered for entity %q", entity)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i, step := range steps {
			result := tx.Where(step.where, sql.Named("id", id)).Delete(step.model)
			if result.Error != nil {
				return fmt.Errorf("cascade %s step %d (%T): %w", entity, i, step.model, result.Error)
			}
			if i == len(steps)-1 && result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}
