package types

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system.
// Accounts are created and refreshed by the sign-in flow; the identity
// itself is owned by the external OAuth provider.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// OpenID is the identifier assigned by the external identity provider.
	// It is unique across users and is the key of the sign-in upsert.
	OpenID string `json:"open_id" db:"open_id"`

	// Name is the user's display name, when the provider supplied one.
	Name *string `json:"name" db:"name"`

	// Email is the user's email address, when the provider supplied one.
	Email *string `json:"email" db:"email"`

	// LoginMethod records how the user authenticated with the provider
	// (e.g., "google", "email").
	LoginMethod *string `json:"login_method" db:"login_method"`

	// Role indicates the user's authorization level ("user" or "admin").
	Role string `json:"role" db:"role"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// LastSignedIn is the timestamp of the user's most recent sign-in.
	LastSignedIn time.Time `json:"last_signed_in" db:"last_signed_in"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is the assertion produced by the identity provider after a
// successful sign-in. Nil fields were not supplied and are left untouched
// on existing accounts.
type Identity struct {
	OpenID       string
	Name         *string
	Email        *string
	LoginMethod  *string
	Role         *string
	LastSignedIn time.Time
}
