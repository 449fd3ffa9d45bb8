package transfer

import (
	"context"
	"fmt"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
)

// RoleValidator loads an account and checks it holds the role its position requires.
type RoleValidator struct {
	accounts account.Repository
}

// NewRoleValidator builds a validator reading from accounts.
func NewRoleValidator(accounts account.Repository) *RoleValidator {
	return &RoleValidator{accounts: accounts}
}

// Require returns the loaded account, including its current balance.
func (v *RoleValidator) Require(ctx context.Context, accountID string, role account.Role) (account.Account, error) {
	acct, err := v.accounts.Get(ctx, accountID)
	if err != nil {
		return account.Account{}, err
	}
	if acct.Role != role {
		return account.Account{}, fmt.Errorf("%w: expected %s, got %s", apperrors.ErrWrongRole, role, acct.Role)
	}
	return acct, nil
}
