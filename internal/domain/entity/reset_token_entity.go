package entity

import "time"

// ResetToken is a single-use password reset grant. The token string is the
// primary key; validity is decided lazily from Created against a TTL, there
// is no stored expiry column.
type ResetToken struct {
	Token   string
	UserID  int64
	Created time.Time
}
