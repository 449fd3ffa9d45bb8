package account

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/tradepay/internal/apperrors"
)

// MinSecretLength is the shortest password accepted when opening an account.
const MinSecretLength = 6

// Service provisions accounts. It is the only writer of the credential hash.
type Service struct {
	repo Repository
	cost int
}

// NewService creates an account service hashing secrets at bcrypt.DefaultCost.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// OpenInput captures what is needed to open an account.
type OpenInput struct {
	Name           string
	Email          string
	Role           Role
	Secret         string
	CredentialHash []byte // used instead of Secret when already hashed
	Balance        int64
}

// HashSecret returns the bcrypt hash for secret.
func (s *Service) HashSecret(secret string) ([]byte, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrInvalidInput, MinSecretLength)
	}
	return bcrypt.GenerateFromPassword([]byte(secret), s.cost)
}

// Open validates input and stores a new account.
func (s *Service) Open(ctx context.Context, in OpenInput) (Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Account{}, fmt.Errorf("%w: name is required", apperrors.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return Account{}, fmt.Errorf("%w: invalid email", apperrors.ErrInvalidInput)
	}
	role, err := ParseRole(string(in.Role))
	if err != nil {
		return Account{}, err
	}
	if in.Balance < 0 {
		return Account{}, fmt.Errorf("%w: balance cannot be negative", apperrors.ErrInvalidInput)
	}

	hash := in.CredentialHash
	if len(hash) == 0 {
		if hash, err = s.HashSecret(in.Secret); err != nil {
			return Account{}, err
		}
	}

	acct := Account{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          NormalizeEmail(in.Email),
		Role:           role,
		CredentialHash: hash,
		Balance:        in.Balance,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}
