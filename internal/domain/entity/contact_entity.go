package entity

// Contact is a reachability record owned by a user. Type names the channel
// ("email", "phone", ...) and Value the address within it. The pair
// (Type, Value) is unique store-wide, so one address belongs to one user.
type Contact struct {
	ID     int64
	UserID int64
	Type   string
	Value  string
}

// TypeEmail is the contact channel the account email is mirrored into.
// Email lookups resolve through contacts of this type.
const TypeEmail = "email"
