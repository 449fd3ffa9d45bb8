package ledger

import (
	"context"
	"time"
)

// Status is the outcome recorded on an audit log entry.
type Status string

const (
	// StatusSuccess marks an attempt that produced a transaction.
	StatusSuccess Status = "SUCCESS"
	// StatusFailed marks an attempt that was rejected or faulted.
	StatusFailed Status = "FAILED"
)

// Transaction is the immutable record of a completed balance movement.
type Transaction struct {
	ID        string    `json:"id"`
	PayerID   string    `json:"payer_id"`
	PayeeID   string    `json:"payee_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// LogEntry is one row of the audit trail. TransactionID is empty for failed attempts.
type LogEntry struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	PayerID       string    `json:"payer_id"`
	PayeeID       string    `json:"payee_id"`
	Amount        int64     `json:"amount"`
	Status        Status    `json:"status"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Ledger is the write side of the account store and the audit trail.
type Ledger interface {
	// Move debits payer and credits payee by amount, inserting the transaction and its
	// SUCCESS log entry, all in one atomic unit. The payer balance is re-checked against
	// the locked row so a concurrent debit cannot overdraw the account.
	Move(ctx context.Context, payerID, payeeID string, amount int64) (Transaction, error)
	// AppendLog inserts an audit entry outside of any transfer.
	AppendLog(ctx context.Context, entry LogEntry) error
	// ListLogs returns entries newest first.
	ListLogs(ctx context.Context, offset, limit int) ([]LogEntry, error)
	CountLogs(ctx context.Context) (int, error)
}
