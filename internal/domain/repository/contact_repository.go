package repository

import (
	"context"

	"github.com/nordveldt/userbase/internal/domain/entity"
)

// ContactReader is the read side of the contact store, enough to hydrate a
// user aggregate.
type ContactReader interface {
	// ListByUserID returns the user's contacts ordered by ID. A user
	// without contacts yields an empty slice, not an error.
	ListByUserID(ctx context.Context, userID int64) ([]entity.Contact, error)
}

// ContactAccess is the slice of the contact store the user repository needs:
// hydration on reads and fan-out on batch inserts.
type ContactAccess interface {
	ContactReader
	// CreateMany inserts the contacts in one statement. An empty slice is a
	// no-op.
	CreateMany(ctx context.Context, contacts []entity.Contact) error
}

// ContactRepository is the full persistence port for contacts.
type ContactRepository interface {
	ContactAccess
	// Create inserts a single contact and backfills its generated ID.
	Create(ctx context.Context, c *entity.Contact) error
	// DeleteByUserID removes all contacts of a user.
	DeleteByUserID(ctx context.Context, userID int64) error
}
