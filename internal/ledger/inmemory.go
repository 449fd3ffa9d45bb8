package ledger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
)

// InMemory is a concurrency-safe ledger that also serves as the account store. It backs
// development mode and unit tests.
type InMemory struct {
	mu           sync.RWMutex
	accounts     map[string]account.Account
	transactions map[string]Transaction
	logs         []LogEntry
}

var (
	_ Ledger             = (*InMemory)(nil)
	_ account.Repository = (*InMemory)(nil)
)

// NewInMemory creates an empty in-memory ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		accounts:     make(map[string]account.Account),
		transactions: make(map[string]Transaction),
	}
}

// Get implements account.Repository.
func (l *InMemory) Get(_ context.Context, id string) (account.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, ok := l.accounts[id]
	if !ok {
		return account.Account{}, fmt.Errorf("account %s: %w", id, apperrors.ErrNotFound)
	}
	return acct, nil
}

// GetByEmail implements account.Repository.
func (l *InMemory) GetByEmail(_ context.Context, email string) (account.Account, error) {
	email = account.NormalizeEmail(email)
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, acct := range l.accounts {
		if acct.Email == email {
			return acct, nil
		}
	}
	return account.Account{}, fmt.Errorf("account %s: %w", email, apperrors.ErrNotFound)
}

// Create implements account.Repository.
func (l *InMemory) Create(_ context.Context, acct account.Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[acct.ID]; exists {
		return fmt.Errorf("account %s: %w", acct.ID, apperrors.ErrDuplicate)
	}
	email := account.NormalizeEmail(acct.Email)
	for _, existing := range l.accounts {
		if existing.Email == email {
			return fmt.Errorf("email %s: %w", acct.Email, apperrors.ErrDuplicate)
		}
	}
	acct.Email = email
	l.accounts[acct.ID] = acct
	return nil
}

// Move implements Ledger. The whole mutation happens under one write lock.
func (l *InMemory) Move(_ context.Context, payerID, payeeID string, amount int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, apperrors.ErrInvalidAmount
	}
	if payerID == payeeID {
		return Transaction{}, fmt.Errorf("%w: payer and payee must differ", apperrors.ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	payer, ok := l.accounts[payerID]
	if !ok {
		return Transaction{}, fmt.Errorf("payer %s: %w", payerID, apperrors.ErrNotFound)
	}
	payee, ok := l.accounts[payeeID]
	if !ok {
		return Transaction{}, fmt.Errorf("payee %s: %w", payeeID, apperrors.ErrNotFound)
	}
	if payer.Balance < amount {
		return Transaction{}, apperrors.ErrInsufficientFunds
	}
	// Mirrors the BIGINT out-of-range error Postgres raises on the credit.
	if payee.Balance > math.MaxInt64-amount {
		return Transaction{}, fmt.Errorf("credit payee %s: %w: balance out of range", payeeID, apperrors.ErrStorageFault)
	}

	payer.Balance -= amount
	payee.Balance += amount
	l.accounts[payerID] = payer
	l.accounts[payeeID] = payee

	now := time.Now().UTC()
	txn := Transaction{
		ID:        uuid.NewString(),
		PayerID:   payerID,
		PayeeID:   payeeID,
		Amount:    amount,
		CreatedAt: now,
	}
	l.transactions[txn.ID] = txn
	l.logs = append(l.logs, LogEntry{
		ID:            uuid.NewString(),
		TransactionID: txn.ID,
		PayerID:       payerID,
		PayeeID:       payeeID,
		Amount:        amount,
		Status:        StatusSuccess,
		Timestamp:     now,
	})
	return txn, nil
}

// AppendLog implements Ledger.
func (l *InMemory) AppendLog(_ context.Context, entry LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, entry)
	return nil
}

// ListLogs implements Ledger.
func (l *InMemory) ListLogs(_ context.Context, offset, limit int) ([]LogEntry, error) {
	l.mu.RLock()
	sorted := make([]LogEntry, len(l.logs))
	copy(sorted, l.logs)
	l.mu.RUnlock()

	// logs are appended in time order; newest first is the reverse.
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	if offset >= len(sorted) {
		return nil, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], nil
}

// CountLogs implements Ledger.
func (l *InMemory) CountLogs(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.logs), nil
}

// Transactions returns a snapshot of all committed transactions.
func (l *InMemory) Transactions() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Transaction, 0, len(l.transactions))
	for _, txn := range l.transactions {
		out = append(out, txn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
