package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/tradepay/internal/account"
)

// SeedAccount is a test helper that stores an account with the given role, balance and
// plain-text secret in the in-memory ledger and returns it.
func SeedAccount(l *InMemory, role account.Role, balance int64, secret string) account.Account {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	id := uuid.NewString()
	acct := account.Account{
		ID:             id,
		Name:           fmt.Sprintf("%s %s", role, id[:8]),
		Email:          fmt.Sprintf("%s@example.test", id[:8]),
		Role:           role,
		CredentialHash: hash,
		Balance:        balance,
	}
	if err := l.Create(context.Background(), acct); err != nil {
		panic(err)
	}
	return acct
}

// Logs returns every audit entry in insertion order.
func (l *InMemory) Logs() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LogEntry, len(l.logs))
	copy(out, l.logs)
	return out
}
