package authx

import (
	"github.com/praxis-health/praxis/sdk/meta"
)

// User represents a practitioner with an account on the practice management
// system.
type User struct {
	// ID is the server-assigned identifier of the User.
	ID int64 `json:"id"`
	// Email is the User's email address. It doubles as their login name.
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	// IsAdmin indicates whether the User has administrative privileges.
	IsAdmin bool `json:"is_admin,omitempty"`
	// Provider indicates how the User authenticates: "email", "google", or
	// "apple".
	Provider string     `json:"provider,omitempty"`
	Created  *meta.Time `json:"created_at,omitempty"`
}

// FullName returns the User's given name and surname, or their email address
// if neither is known.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Email
}

// Registration is the profile submitted when creating a new email/password
// account.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Provider identifies a third-party identity provider.
type Provider string

const (
	// ProviderGoogle represents Google Sign-In. Tokens are OpenID Connect ID
	// tokens.
	ProviderGoogle Provider = "google"
	// ProviderApple represents Sign in with Apple. Tokens are Apple identity
	// tokens.
	ProviderApple Provider = "apple"
)
