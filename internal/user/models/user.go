package models

import "time"

// Role gates privileged operations. ADMIN callers bypass ownership checks.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether the role is one of the two known variants.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account created from a Google sign-in. ID is the Google OAuth
// subject, so it is stable across logins and never reassigned.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ImageURL  string    `json:"image_url,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoogleProfile is the verified identity handed to FindOrCreate after the
// identity provider has checked the credential.
type GoogleProfile struct {
	Sub      string
	Email    string
	Name     string
	ImageURL string
}
