package auditlog

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/tradepay/internal/apperrors"
)

// Handler exposes the audit trail.
type Handler struct {
	svc *Service
}

// NewHandler constructs an audit log handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /logs?page=&limit=.
func (h *Handler) List(c *fiber.Ctx) error {
	requester, _ := c.Locals("user_id").(string)
	if requester == "" {
		return apperrors.ErrUnauthorized
	}
	page, err := h.svc.List(c.UserContext(), requester, c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return err
	}
	return c.JSON(page)
}
