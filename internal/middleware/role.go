package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
)

const (
	userIDLocal = "user_id"
	roleLocal   = "role"
)

// UserID returns the authenticated account id, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDLocal).(string)
	return id
}

// Role returns the role claimed by the access token.
func Role(c *fiber.Ctx) account.Role {
	role, _ := c.Locals(roleLocal).(account.Role)
	return role
}

// RequireRole admits only tokens carrying one of roles.
func RequireRole(roles ...account.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := Role(c)
		for _, r := range roles {
			if got == r {
				return c.Next()
			}
		}
		return apperrors.ErrForbidden
	}
}
