package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-network/internal/observability"
)

// ValidationOK is the metrics outcome label for accepted tokens; failed
// validations are labeled with the failure kind.
const ValidationOK = "ok"

// TokenValidator resolves a token string into a Principal.
type TokenValidator interface {
	Validate(ctx context.Context, tokenString string) (*Principal, error)
}

// IdentityFilter runs once per inbound request, before any domain handler.
// It holds no mutable state of its own; all collaborators are safe for
// concurrent use.
//
// The filter never aborts the chain. A missing header means the request is
// legitimately anonymous. An invalid token records a typed failure in
// request scope and the chain keeps running; whether that failure matters
// is the policy step's call. This keeps public and authenticated routes on
// one pipeline while the invalid-vs-absent distinction stays observable.
type IdentityFilter struct {
	tokens  TokenValidator
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewIdentityFilter constructs the filter.
func NewIdentityFilter(tokens TokenValidator, logger *zap.Logger, metrics *observability.Metrics) *IdentityFilter {
	return &IdentityFilter{tokens: tokens, logger: logger, metrics: metrics}
}

// Handle resolves a bearer token into a request-scoped Principal.
func (f *IdentityFilter) Handle(c *fiber.Ctx) error {
	// Guard against double invocation within one request lifecycle.
	if _, ok := PrincipalFromContext(c); ok {
		return c.Next()
	}

	raw, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return c.Next()
	}

	principal, err := f.tokens.Validate(c.Context(), raw)
	if err != nil {
		if authErr, ok := AsError(err); ok {
			f.logger.Debug("token rejected",
				zap.String("kind", string(authErr.Kind)),
				zap.String("path", c.Path()))
			f.metrics.RecordValidation(string(authErr.Kind))
			RecordFailure(c, authErr)
			return c.Next()
		}
		// Store failures are infrastructure problems, not client errors.
		return err
	}

	f.metrics.RecordValidation(ValidationOK)
	BindPrincipal(c, principal)
	return c.Next()
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
