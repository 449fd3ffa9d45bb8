package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/tradepay/internal/apperrors"
)

// PostgreSQL error codes the ledger distinguishes.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgCheckViolation       = "23514"
	pgForeignKeyViolation  = "23503"
)

// PostgresLedger persists balance movements and the audit trail in PostgreSQL.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Move records a balanced movement between two accounts.
func (l *PostgresLedger) Move(ctx context.Context, payerID, payeeID string, amount int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, apperrors.ErrInvalidAmount
	}
	payer, err := uuid.Parse(payerID)
	if err != nil {
		return Transaction{}, fmt.Errorf("payer %s: %w", payerID, apperrors.ErrNotFound)
	}
	payee, err := uuid.Parse(payeeID)
	if err != nil {
		return Transaction{}, fmt.Errorf("payee %s: %w", payeeID, apperrors.ErrNotFound)
	}
	if payer == payee {
		return Transaction{}, fmt.Errorf("%w: payer and payee must differ", apperrors.ErrInvalidInput)
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return Transaction{}, classify("begin transfer", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx)) // nolint:errcheck

	// Lock both rows in a stable order so opposite-direction transfers cannot deadlock.
	balances, err := lockAccounts(ctx, tx, payer, payee)
	if err != nil {
		return Transaction{}, err
	}
	if balances[payer] < amount {
		return Transaction{}, apperrors.ErrInsufficientFunds
	}

	// Past the lock the caller may no longer cancel: a COMMIT interrupted by a
	// deadline can still land, leaving the caller with an error for moved money.
	ctx, cancel := writeContext(ctx, writeTimeout)
	defer cancel()

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE id = $2`, amount, payer); err != nil {
		return Transaction{}, classify("debit payer", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, amount, payee); err != nil {
		return Transaction{}, classify("credit payee", err)
	}

	txn := Transaction{
		ID:      uuid.NewString(),
		PayerID: payer.String(),
		PayeeID: payee.String(),
		Amount:  amount,
	}
	if err := tx.QueryRow(ctx, `INSERT INTO transactions (id, payer_id, payee_id, amount)
        VALUES ($1, $2, $3, $4) RETURNING created_at`, txn.ID, payer, payee, amount).Scan(&txn.CreatedAt); err != nil {
		return Transaction{}, classify("insert transaction", err)
	}
	txn.CreatedAt = txn.CreatedAt.UTC()

	if err := insertLog(ctx, tx, LogEntry{
		TransactionID: txn.ID,
		PayerID:       txn.PayerID,
		PayeeID:       txn.PayeeID,
		Amount:        amount,
		Status:        StatusSuccess,
		Timestamp:     txn.CreatedAt,
	}); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, classify("commit transfer", err)
	}
	return txn, nil
}

// writeTimeout bounds the statements that follow the row lock, COMMIT included.
const writeTimeout = 5 * time.Second

func writeContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

// AppendLog inserts a standalone audit entry.
func (l *PostgresLedger) AppendLog(ctx context.Context, entry LogEntry) error {
	return insertLog(ctx, l.db, entry)
}

// ListLogs returns a page of audit entries ordered newest first.
func (l *PostgresLedger) ListLogs(ctx context.Context, offset, limit int) ([]LogEntry, error) {
	rows, err := l.db.Query(ctx, `SELECT id, transaction_id, payer_id, payee_id, amount, status, error_message, created_at
        FROM transaction_logs ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, classify("list logs", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			id, payer, payee uuid.UUID
			txnID            *uuid.UUID
			status           string
			errMsg           *string
			e                LogEntry
		)
		if err := rows.Scan(&id, &txnID, &payer, &payee, &e.Amount, &status, &errMsg, &e.Timestamp); err != nil {
			return nil, classify("scan log", err)
		}
		e.ID = id.String()
		if txnID != nil {
			e.TransactionID = txnID.String()
		}
		if errMsg != nil {
			e.ErrorMessage = *errMsg
		}
		e.PayerID = payer.String()
		e.PayeeID = payee.String()
		e.Status = Status(status)
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate logs", err)
	}
	return entries, nil
}

// CountLogs returns the total number of audit entries.
func (l *PostgresLedger) CountLogs(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRow(ctx, `SELECT COUNT(*) FROM transaction_logs`).Scan(&n); err != nil {
		return 0, classify("count logs", err)
	}
	return n, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertLog(ctx context.Context, db execer, entry LogEntry) error {
	payer, err := uuid.Parse(entry.PayerID)
	if err != nil {
		return fmt.Errorf("%w: payer id: %w", apperrors.ErrInvalidInput, err)
	}
	payee, err := uuid.Parse(entry.PayeeID)
	if err != nil {
		return fmt.Errorf("%w: payee id: %w", apperrors.ErrInvalidInput, err)
	}
	var txnID *uuid.UUID
	if entry.TransactionID != "" {
		id, err := uuid.Parse(entry.TransactionID)
		if err != nil {
			return fmt.Errorf("%w: transaction id: %w", apperrors.ErrInvalidInput, err)
		}
		txnID = &id
	}
	var errMsg *string
	if entry.ErrorMessage != "" {
		errMsg = &entry.ErrorMessage
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = db.Exec(ctx, `INSERT INTO transaction_logs (id, transaction_id, payer_id, payee_id, amount, status, error_message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, id, txnID, payer, payee, entry.Amount, string(entry.Status), errMsg, ts.UTC())
	if err != nil {
		return classify("insert log", err)
	}
	return nil
}

func lockAccounts(ctx context.Context, tx pgx.Tx, payer, payee uuid.UUID) (map[uuid.UUID]int64, error) {
	rows, err := tx.Query(ctx, `SELECT id, balance FROM accounts WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, []string{payer.String(), payee.String()})
	if err != nil {
		return nil, classify("lock accounts", err)
	}
	defer rows.Close()

	balances := make(map[uuid.UUID]int64, 2)
	for rows.Next() {
		var (
			id      uuid.UUID
			balance int64
		)
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, classify("scan account", err)
		}
		balances[id] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, classify("lock accounts", err)
	}
	if _, ok := balances[payer]; !ok {
		return nil, fmt.Errorf("payer %s: %w", payer, apperrors.ErrNotFound)
	}
	if _, ok := balances[payee]; !ok {
		return nil, fmt.Errorf("payee %s: %w", payee, apperrors.ErrNotFound)
	}
	return balances, nil
}

// classify maps driver errors onto the ledger's error kinds.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%s: %w: %w", op, apperrors.ErrConcurrencyConflict, err)
		case pgCheckViolation:
			if pgErr.ConstraintName == "accounts_balance_non_negative" {
				return fmt.Errorf("%s: %w", op, apperrors.ErrInsufficientFunds)
			}
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w: %w", op, apperrors.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrStorageFault, err)
}
