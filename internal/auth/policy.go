package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-network/internal/domain"
	apperrors "github.com/spec-kit/campus-network/pkg/util/errorutil"
)

// PublicAuthority marks a pattern that requires no bound principal.
const PublicAuthority = ""

// AnyAuthority marks a pattern open to every authenticated principal,
// regardless of role.
const AnyAuthority = "*"

// Rule maps a path pattern to a required authority. A pattern ending in
// "/*" matches by prefix, otherwise it matches exactly.
type Rule struct {
	Pattern   string
	Authority string
}

// Policy is the route-pattern to required-authority table, evaluated after
// identity resolution and before any domain handler. First match wins, so
// more specific patterns must be listed before broader ones.
type Policy struct {
	rules []Rule
}

// NewPolicy builds a policy from ordered rules.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy is the table for this service. Auth, health and the
// realtime upgrade endpoint are public; the upgrade performs its own
// handshake authentication.
func DefaultPolicy() *Policy {
	return NewPolicy(
		Rule{Pattern: "/health/*", Authority: PublicAuthority},
		Rule{Pattern: "/auth/*", Authority: PublicAuthority},
		Rule{Pattern: "/ws", Authority: PublicAuthority},
		Rule{Pattern: "/api/me", Authority: AnyAuthority},
		Rule{Pattern: "/api/admin/*", Authority: domain.RoleAdmin.Authority()},
		Rule{Pattern: "/api/moderation/*", Authority: domain.RoleModerator.Authority()},
		Rule{Pattern: "/api/*", Authority: domain.RoleUser.Authority()},
	)
}

// RequiredAuthority resolves the authority for a path. Matching is
// case-insensitive because the router is: a request for /API/x reaches
// the same handler as /api/x and must hit the same rule. The second
// return is false when no rule matches.
func (p *Policy) RequiredAuthority(path string) (string, bool) {
	path = strings.ToLower(path)
	for _, rule := range p.rules {
		if prefix, ok := strings.CutSuffix(rule.Pattern, "/*"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return rule.Authority, true
			}
			continue
		}
		if path == rule.Pattern {
			return rule.Authority, true
		}
	}
	return PublicAuthority, false
}

// Enforce returns the middleware that applies the table. An absent
// principal on a protected pattern is always a client error, never a
// silent downgrade to anonymous success: a recorded validation failure is
// surfaced as-is, a missing token yields a generic authentication
// challenge, and an authenticated principal without the authority is
// forbidden. A path no rule covers requires an authenticated principal;
// only an explicit public rule opens a route to anonymous callers.
func (p *Policy) Enforce() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authority, matched := p.RequiredAuthority(c.Path())
		if matched && authority == PublicAuthority {
			return c.Next()
		}

		principal, ok := PrincipalFromContext(c)
		if !ok {
			if failure, recorded := FailureFromContext(c); recorded {
				return apperrors.NewDomainError(string(failure.Kind), "invalid credentials", fiber.StatusUnauthorized, nil)
			}
			return apperrors.NewUnauthorized("authentication required")
		}

		if matched && authority != AnyAuthority && !principal.HasAuthority(authority) {
			return apperrors.NewForbidden("insufficient authority")
		}
		return c.Next()
	}
}

// RequireAuthority gates a single route group on one authority, for spots
// where the table's pattern grammar is too coarse.
func RequireAuthority(authority string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.HasAuthority(authority) {
			return apperrors.NewForbidden("insufficient authority")
		}
		return c.Next()
	}
}
