package account

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

// Repository is the read side of the account store plus account provisioning.
// Balances are only ever changed by the ledger.
type Repository interface {
	Get(ctx context.Context, id string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	Create(ctx context.Context, acct Account) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectAccount = `SELECT id, name, email, role, credential_hash, balance, created_at FROM accounts`

// Get fetches an account by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, fmt.Errorf("account %s: %w", id, apperrors.ErrNotFound)
	}
	return r.scanOne(ctx, selectAccount+` WHERE id = $1`, accountID)
}

// GetByEmail fetches an account by its normalized email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (Account, error) {
	return r.scanOne(ctx, selectAccount+` WHERE email = $1`, NormalizeEmail(email))
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, arg any) (Account, error) {
	var (
		id        uuid.UUID
		role      string
		createdAt time.Time
		acct      Account
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(&id, &acct.Name, &acct.Email, &role, &acct.CredentialHash, &acct.Balance, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("account %v: %w", arg, apperrors.ErrNotFound)
		}
		return Account{}, fmt.Errorf("load account: %w: %w", apperrors.ErrStorageFault, err)
	}
	acct.ID = id.String()
	acct.Role = Role(role)
	acct.CreatedAt = createdAt.UTC()
	return acct, nil
}

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	accountID, err := uuid.Parse(acct.ID)
	if err != nil {
		return fmt.Errorf("%w: account id: %v", apperrors.ErrInvalidInput, err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, name, email, role, credential_hash, balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		accountID, acct.Name, NormalizeEmail(acct.Email), string(acct.Role), acct.CredentialHash, acct.Balance, acct.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("email %s: %w", acct.Email, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("create account: %w: %w", apperrors.ErrStorageFault, err)
	}
	return nil
}
