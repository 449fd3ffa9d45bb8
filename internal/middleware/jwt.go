package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/auth"
	"github.com/congo-pay/tradepay/internal/logging"
)

// TokenParser validates an access token and returns its claims.
type TokenParser interface {
	Parse(token string) (auth.Claims, error)
}

// JWTAuth validates the bearer token and stores the subject and role on the request.
func JWTAuth(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return apperrors.ErrUnauthorized
		}
		claims, err := parser.Parse(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return apperrors.ErrUnauthorized
		}

		c.Locals(userIDLocal, claims.Subject)
		c.Locals(roleLocal, claims.Role)

		ctx := c.UserContext()
		scoped := logging.FromContext(ctx, slog.Default()).With(slog.String("user_id", claims.Subject))
		c.SetUserContext(logging.WithContext(ctx, scoped))
		return c.Next()
	}
}
