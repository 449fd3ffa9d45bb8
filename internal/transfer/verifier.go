package transfer

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
)

// CredentialVerifier confirms a payer's secret immediately before money moves.
type CredentialVerifier struct {
	accounts account.Repository
}

// NewCredentialVerifier builds a verifier reading from accounts.
func NewCredentialVerifier(accounts account.Repository) *CredentialVerifier {
	return &CredentialVerifier{accounts: accounts}
}

// Verify returns nil when secret matches the stored hash of accountID.
func (v *CredentialVerifier) Verify(ctx context.Context, accountID, secret string) error {
	acct, err := v.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(acct.CredentialHash, []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperrors.ErrInvalidCredential
		}
		return fmt.Errorf("%w: stored credential for %s: %w", apperrors.ErrStorageFault, accountID, err)
	}
	return nil
}
