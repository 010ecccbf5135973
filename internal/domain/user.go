package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// AuthorityPrefix marks role-derived authorities so they are unambiguous
// from other claim values carried in a token.
const AuthorityPrefix = "ROLE_"

// ParseRole validates a role name against the closed enumeration.
func ParseRole(name string) (Role, error) {
	switch Role(name) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(name), nil
	default:
		return "", fmt.Errorf("unknown role %q", name)
	}
}

// Authority returns the prefixed authority string for the role.
func (r Role) Authority() string {
	return AuthorityPrefix + string(r)
}

// User is the identity record owned by the user store. The auth core only
// reads it.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
