package entity

import (
	"time"
)

// Column names of the users table. They key the attribute map shared by the
// bulk-insert column derivation and the dirty diff, so renaming one here
// renames it everywhere.
const (
	ColRealname = "realname"
	ColRole     = "role"
	ColEmail    = "email"
	ColPassword = "password"
	ColCreated  = "created"
	ColUpdated  = "updated"
)

// User is the aggregate root for the account domain.
//
// Password holds a bcrypt hash once persisted; plaintext lives in this field
// only between construction and the repository write that hashes it.
// Contacts is composed on read from the contact store and is never written
// through the user repository.
type User struct {
	ID       int64
	Realname string
	Role     string
	Email    string
	Password string
	Created  time.Time
	Updated  time.Time
	Contacts []Contact

	stored map[string]any
}

// Attributes returns the persistable column map. Contacts are a derived
// attribute and deliberately absent.
func (u *User) Attributes() map[string]any {
	return map[string]any{
		ColRealname: u.Realname,
		ColRole:     u.Role,
		ColEmail:    u.Email,
		ColPassword: u.Password,
		ColCreated:  u.Created,
		ColUpdated:  u.Updated,
	}
}

// MarkStored snapshots the current attributes as the persisted state.
// Repositories call it after scanning a row and after a successful write, so
// a later Changed reflects only what the caller mutated in between.
func (u *User) MarkStored() {
	u.stored = u.Attributes()
}

// Changed reports the attributes that differ from the stored snapshot.
// A user that was never marked stored reports every attribute as changed.
func (u *User) Changed() map[string]any {
	attrs := u.Attributes()
	if u.stored == nil {
		return attrs
	}
	diff := make(map[string]any)
	for col, v := range attrs {
		prev, ok := u.stored[col]
		if !ok || !attrEqual(prev, v) {
			diff[col] = v
		}
	}
	return diff
}

// attrEqual compares attribute values, using time.Equal for timestamps so
// equal instants with different wall-clock representations do not show up as
// dirty.
func attrEqual(a, b any) bool {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Equal(bt)
	}
	return a == b
}
