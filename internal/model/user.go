package model

import "time"

// Role is one of the fixed set of roles a user may hold.  The set is closed:
// values outside it never satisfy an authorization requirement.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// implied lists, for each role, the other roles it subsumes.
var implied = map[Role][]Role{
	RoleAdmin: {RoleOperator, RoleViewer},
}

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	}
	return false
}

// Includes reports whether holding r grants the permissions of required.
func (r Role) Includes(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	if r == required {
		return true
	}
	for _, sub := range implied[r] {
		if sub == required {
			return true
		}
	}
	return false
}

// User represents a row of the `users` table.
//
// Fields:
//
//	ID           – opaque, stable identifier (UUID string).
//	Email        – unique, stored lower-cased.
//	PasswordHash – bcrypt digest; never serialised.
//	Role         – one of admin, operator, viewer.
//	DisplayName  – free-form name shown in the UI.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	DisplayName  string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Actor returns the identity recorded on commands issued by u: the email,
// falling back to the id.
func (u User) Actor() string {
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}
