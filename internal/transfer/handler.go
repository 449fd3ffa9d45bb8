package transfer

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/httpx"
	"github.com/congo-pay/tradepay/internal/ledger"
	"github.com/congo-pay/tradepay/internal/money"
)

// Handler exposes the transfer endpoints.
type Handler struct {
	engine  *Engine
	timeout time.Duration
}

// NewHandler constructs a transfer handler bounding each attempt by timeout.
func NewHandler(engine *Engine, timeout time.Duration) *Handler {
	return &Handler{engine: engine, timeout: timeout}
}

type clientTransferRequest struct {
	MerchantID string          `json:"merchant_id" validate:"required,uuid"`
	Amount     decimal.Decimal `json:"amount"`
	Password   string          `json:"password" validate:"required"`
}

type merchantTransferRequest struct {
	SupplierID string          `json:"supplier_id" validate:"required,uuid"`
	Amount     decimal.Decimal `json:"amount"`
	Password   string          `json:"password" validate:"required"`
}

type transferFunc func(context.Context, Request) (ledger.Transaction, error)

// ClientToMerchant handles POST /transfers/client.
func (h *Handler) ClientToMerchant(c *fiber.Ctx) error {
	var req clientTransferRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	return h.execute(c, req.MerchantID, req.Amount, req.Password, h.engine.TransferClientToMerchant, "Payment to merchant completed")
}

// MerchantToSupplier handles POST /transfers/merchant.
func (h *Handler) MerchantToSupplier(c *fiber.Ctx) error {
	var req merchantTransferRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	return h.execute(c, req.SupplierID, req.Amount, req.Password, h.engine.TransferMerchantToSupplier, "Payment to supplier completed")
}

func (h *Handler) execute(c *fiber.Ctx, payeeID string, amount decimal.Decimal, password string, fn transferFunc, message string) error {
	payerID, _ := c.Locals("user_id").(string)
	if payerID == "" {
		return apperrors.ErrUnauthorized
	}
	minor, err := money.ToMinor(amount)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	txn, err := fn(ctx, Request{PayerID: payerID, PayeeID: payeeID, Amount: minor, Secret: password})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction": fiber.Map{
			"id":         txn.ID,
			"payer_id":   txn.PayerID,
			"payee_id":   txn.PayeeID,
			"amount":     money.FromMinor(txn.Amount),
			"created_at": txn.CreatedAt,
		},
		"message": message,
	})
}
