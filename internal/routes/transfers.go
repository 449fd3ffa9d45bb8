package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/auditlog"
	"github.com/congo-pay/tradepay/internal/middleware"
	"github.com/congo-pay/tradepay/internal/transfer"
)

// RegisterTransferRoutes wires the two payment flows.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/transfers", rateLimiter)
	group.Post("/client", middleware.RequireRole(account.RoleClient), h.ClientToMerchant)
	group.Post("/merchant", middleware.RequireRole(account.RoleMerchant), h.MerchantToSupplier)
}

// RegisterLogRoutes wires the audit trail listing.
func RegisterLogRoutes(r fiber.Router, h *auditlog.Handler) {
	r.Get("/logs", middleware.RequireRole(account.RoleAdmin), h.List)
}
