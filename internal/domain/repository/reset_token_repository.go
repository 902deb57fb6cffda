package repository

import (
	"context"
	"time"

	"github.com/nordveldt/userbase/internal/domain/entity"
)

// ResetTokenRepository is the persistence port for password reset tokens.
// Expiry is not stored; readers pass a cutoff computed from the service TTL
// and rows created at or before it are treated as dead.
type ResetTokenRepository interface {
	// Insert stores a freshly issued token.
	Insert(ctx context.Context, t *entity.ResetToken) error
	// Exists reports whether the token exists and was created after the
	// cutoff.
	Exists(ctx context.Context, token string, cutoff time.Time) (bool, error)
	// UpdateOwnerPassword sets the password hash of the user owning the
	// token, resolved in-store, and returns the number of users updated.
	UpdateOwnerPassword(ctx context.Context, token, passwordHash string) (int64, error)
	// Delete removes the token. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes tokens created at or before the cutoff and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
