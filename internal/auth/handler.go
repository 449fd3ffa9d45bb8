package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/httpx"
	"github.com/congo-pay/tradepay/internal/money"
)

// Handler exposes register, confirm and login.
type Handler struct {
	svc *Service
}

// NewHandler constructs an auth handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Name     string          `json:"name" validate:"required,max=120"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	Role     string          `json:"role" validate:"required,oneof=CLIENT MERCHANT SUPPLIER client merchant supplier"`
	Balance  decimal.Decimal `json:"balance"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	UserID    string       `json:"user_id"`
	Role      account.Role `json:"role"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	var balance int64
	if req.Balance.IsNegative() {
		return apperrors.ErrInvalidAmount
	}
	if !req.Balance.IsZero() {
		minor, err := money.ToMinor(req.Balance)
		if err != nil {
			return err
		}
		balance = minor
	}

	if _, err := h.svc.Register(c.UserContext(), RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     account.Role(req.Role),
		Balance:  balance,
	}); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"message": "Check your email to confirm the registration",
	})
}

// Confirm handles GET /auth/confirm/:confirmId.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	acct, err := h.svc.Confirm(c.UserContext(), c.Params("confirmId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Registration confirmed",
		"user": fiber.Map{
			"id":      acct.ID,
			"name":    acct.Name,
			"email":   acct.Email,
			"role":    acct.Role,
			"balance": money.FromMinor(acct.Balance),
		},
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(loginResponse{
		Token:     res.Token,
		ExpiresIn: int64(time.Until(res.ExpiresAt).Seconds()),
		UserID:    res.Account.ID,
		Role:      res.Account.Role,
	})
}
