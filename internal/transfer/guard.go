package transfer

import (
	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
)

// EnsureSufficient fails when acct cannot cover amount. The ledger repeats this check
// against the locked row; this early pass keeps the common rejection cheap.
func EnsureSufficient(acct account.Account, amount int64) error {
	if acct.Balance < amount {
		return apperrors.ErrInsufficientFunds
	}
	return nil
}
