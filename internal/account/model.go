package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/congo-pay/tradepay/internal/apperrors"
)

// Role is the fixed capacity an account acts in. It never changes after creation.
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleMerchant Role = "MERCHANT"
	RoleSupplier Role = "SUPPLIER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole accepts the role name in any case.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleClient, RoleMerchant, RoleSupplier, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", apperrors.ErrInvalidInput, s)
	}
}

// Account is a balance holder. Balance is kept in minor units and is never negative.
type Account struct {
	ID             string
	Name           string
	Email          string
	Role           Role
	CredentialHash []byte
	Balance        int64
	CreatedAt      time.Time
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
