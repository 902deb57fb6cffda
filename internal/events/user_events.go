package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/nordveldt/userbase/internal/domain/entity"
)

// Event names carried on the events queue.
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

// UserPayload is the user snapshot embedded in an event. Password hashes
// never leave the persistence layer.
type UserPayload struct {
	ID       int64     `json:"id"`
	Realname string    `json:"realname"`
	Role     string    `json:"role"`
	Email    string    `json:"email"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// UserEvent is a lifecycle notification for a user aggregate.
type UserEvent struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	OccurredAt time.Time   `json:"occurred_at"`
	User       UserPayload `json:"user"`
}

// NewUserEvent builds an event for the given lifecycle name from the current
// state of the user.
func NewUserEvent(name string, u *entity.User) UserEvent {
	return UserEvent{
		ID:         uuid.NewString(),
		Name:       name,
		OccurredAt: time.Now().UTC(),
		User: UserPayload{
			ID:       u.ID,
			Realname: u.Realname,
			Role:     u.Role,
			Email:    u.Email,
			Created:  u.Created,
			Updated:  u.Updated,
		},
	}
}
