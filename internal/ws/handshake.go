package ws

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-network/internal/auth"
)

const principalLocal = "ws_principal"

// HandshakeAuth authenticates a connection exactly once, during the
// upgrade. Token extraction prefers the bearer header; clients that cannot
// set headers during an upgrade fall back to the token query parameter.
// Identity semantics are those of the shared validator, so the two
// transports can never disagree on who a token belongs to.
//
// The handshake never rejects: on failure or absence of any token the
// upgrade proceeds with no bound principal, matching the HTTP filter's
// fail-open shape.
func HandshakeAuth(tokens auth.TokenValidator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		raw, ok := TokenFromUpgrade(c)
		if !ok {
			return c.Next()
		}

		principal, err := tokens.Validate(c.Context(), raw)
		if err != nil {
			if authErr, ok := auth.AsError(err); ok {
				logger.Debug("handshake token rejected", zap.String("kind", string(authErr.Kind)))
				return c.Next()
			}
			return err
		}

		c.Locals(principalLocal, principal)
		return c.Next()
	}
}

// TokenFromUpgrade extracts the credential from an upgrade request:
// bearer header first, token query parameter as fallback.
func TokenFromUpgrade(c *fiber.Ctx) (string, bool) {
	if raw, ok := auth.BearerToken(c.Get(fiber.HeaderAuthorization)); ok {
		return raw, true
	}
	if raw := c.Query("token"); raw != "" {
		return raw, true
	}
	return "", false
}

// BoundPrincipal reads the principal the handshake attached, if any. The
// binding lives for the whole connection; messages on the socket are
// attributed to it with no re-validation.
func BoundPrincipal(conn *websocket.Conn) (*auth.Principal, bool) {
	p, ok := conn.Locals(principalLocal).(*auth.Principal)
	return p, ok && p != nil
}
