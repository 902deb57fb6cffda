package repository

import (
	"context"

	"github.com/nordveldt/userbase/internal/events"
)

// PasswordHasher abstracts the credential hashing scheme so repositories and
// services stay independent of bcrypt.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// RoleChangeNotifier receives lifecycle events for users holding the
// administrative role. Implementations must tolerate being called on hot
// paths: failures are logged by the caller, never propagated.
type RoleChangeNotifier interface {
	Notify(ctx context.Context, ev events.UserEvent) error
}
