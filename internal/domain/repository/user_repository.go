package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/nordveldt/userbase/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrTooManyRows is returned when a lookup that must resolve to a single
	// user matches more than one.
	ErrTooManyRows = errors.New("too many rows")
	// ErrEmptyBatch is returned by bulk operations invoked with no entities.
	ErrEmptyBatch = errors.New("empty batch")
)

// SearchFilter narrows a user search. Zero-value fields do not constrain:
// an empty Query skips the substring match and an empty Roles slice admits
// every role.
type SearchFilter struct {
	// Query is matched as a case-insensitive substring against the realname
	// and against every contact value of the user.
	Query string
	// Roles restricts matches to users holding any of the listed roles.
	Roles []string
}

// SplitRoles parses a comma-separated role list into a Roles slice,
// dropping empty segments. A blank input yields nil.
func SplitRoles(s string) []string {
	var roles []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Page bounds a result window. The zero value is valid and normalizes to
// the first page at the default size.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the window to sane bounds: non-positive limits fall back
// to the default size, oversized limits are capped, negative offsets become
// zero.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// UserRepository is the persistence port for the user aggregate.
type UserRepository interface {
	// Create hashes the plaintext password, stamps timestamps, inserts the
	// user and backfills the generated ID.
	Create(ctx context.Context, u *entity.User) error
	// CreateWithHash inserts like Create but stores the password field
	// verbatim, for callers that already hold a hash.
	CreateWithHash(ctx context.Context, u *entity.User) error
	// CreateMany inserts a batch of users in one statement together with
	// their contacts, backfills generated IDs and returns them in input
	// order. An empty batch returns ErrEmptyBatch.
	CreateMany(ctx context.Context, users []*entity.User) ([]int64, error)
	// GetByID loads a user with contacts hydrated, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	// GetByEmail resolves a user through its email contact. Exactly one
	// user must match: none is ErrNotFound, several is ErrTooManyRows.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// Update writes only the attributes changed since the entity was
	// loaded, always refreshing the updated timestamp.
	Update(ctx context.Context, u *entity.User) error
	// Delete removes the user row; contacts follow via cascade.
	Delete(ctx context.Context, u *entity.User) error
	// Search returns the page of users matching the filter, ordered by ID.
	// Contacts are not hydrated.
	Search(ctx context.Context, filter SearchFilter, page Page) ([]*entity.User, error)
	// SearchCount reports how many users the filter matches in total,
	// ignoring pagination.
	SearchCount(ctx context.Context, filter SearchFilter) (int64, error)
	// GetTotalCount counts users matching the equality filters, every
	// filter key being a users column name.
	GetTotalCount(ctx context.Context, filters map[string]any) (int64, error)
}
