package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-network/internal/domain"
)

const (
	principalKey = "auth_principal"
	failureKey   = "auth_failure"
)

// Principal is the resolved identity bound to a single request or a single
// connection. It is immutable after construction: the validator builds it
// once and everything downstream only reads it.
type Principal struct {
	UserID      int64
	Role        domain.Role
	Authorities []string
}

// NewPrincipal derives a principal from an identity record. Authorities
// come from the record's current role, never from a token claim.
func NewPrincipal(user *domain.User) *Principal {
	return &Principal{
		UserID:      user.ID,
		Role:        user.Role,
		Authorities: []string{user.Role.Authority()},
	}
}

// HasAuthority reports whether the principal holds the given authority.
func (p *Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// BindPrincipal attaches the principal to request scope.
func BindPrincipal(c *fiber.Ctx, p *Principal) {
	c.Locals(principalKey, p)
}

// PrincipalFromContext retrieves the bound principal, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	p, ok := c.Locals(principalKey).(*Principal)
	return p, ok && p != nil
}

// RecordFailure stores a validation failure in request scope. The filter
// chain keeps running; the policy step decides whether the failure matters
// for the requested route.
func RecordFailure(c *fiber.Ctx, err *Error) {
	c.Locals(failureKey, err)
}

// FailureFromContext retrieves a recorded validation failure, if any.
func FailureFromContext(c *fiber.Ctx) (*Error, bool) {
	e, ok := c.Locals(failureKey).(*Error)
	return e, ok && e != nil
}
