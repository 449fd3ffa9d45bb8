package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/logging"
	"github.com/congo-pay/tradepay/internal/notification"
)

// Config tunes the registration and login flows.
type Config struct {
	BackendURL      string
	RegistrationTTL time.Duration
	NotifyTimeout   time.Duration
}

// Service runs registration, confirmation and login.
type Service struct {
	accounts account.Repository
	opener   *account.Service
	pending  PendingStore
	tokens   *TokenManager
	notifier notification.Notifier
	logger   *slog.Logger
	cfg      Config
}

// NewService wires the auth service.
func NewService(accounts account.Repository, pending PendingStore, tokens *TokenManager, notifier notification.Notifier, logger *slog.Logger, cfg Config) *Service {
	return &Service{
		accounts: accounts,
		opener:   account.NewService(accounts),
		pending:  pending,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

// RegisterInput is a self-service signup. ADMIN accounts are provisioned by operators only.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     account.Role
	Balance  int64
}

// Register stores a pending registration and emails its confirmation link.
// It returns the confirmation id.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	role, err := account.ParseRole(string(in.Role))
	if err != nil {
		return "", err
	}
	if role == account.RoleAdmin {
		return "", fmt.Errorf("%w: role %s cannot self-register", apperrors.ErrInvalidInput, role)
	}
	if in.Balance < 0 {
		return "", apperrors.ErrInvalidAmount
	}
	if strings.TrimSpace(in.Name) == "" {
		return "", fmt.Errorf("%w: name is required", apperrors.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return "", fmt.Errorf("%w: invalid email", apperrors.ErrInvalidInput)
	}
	email := account.NormalizeEmail(in.Email)
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return "", fmt.Errorf("email %s: %w", email, apperrors.ErrDuplicate)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}

	hash, err := s.opener.HashSecret(in.Password)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	p := Pending{Name: in.Name, Email: email, Role: role, CredentialHash: hash, Balance: in.Balance}
	if err := s.pending.Put(ctx, id, p, s.cfg.RegistrationTTL); err != nil {
		return "", err
	}

	link := fmt.Sprintf("%s/api/v1/auth/confirm/%s", s.cfg.BackendURL, id)
	s.notify(ctx, notification.RegistrationConfirmation(email, in.Name, link))
	return id, nil
}

// Confirm turns a pending registration into an account.
func (s *Service) Confirm(ctx context.Context, confirmID string) (account.Account, error) {
	p, err := s.pending.Take(ctx, confirmID)
	if err != nil {
		return account.Account{}, err
	}
	return s.opener.Open(ctx, account.OpenInput{
		Name:           p.Name,
		Email:          p.Email,
		Role:           p.Role,
		CredentialHash: p.CredentialHash,
		Balance:        p.Balance,
	})
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   account.Account
}

// Login checks the password and issues an access token. Unknown emails and bad
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	acct, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return LoginResult{}, apperrors.ErrInvalidCredential
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword(acct.CredentialHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return LoginResult{}, apperrors.ErrInvalidCredential
		}
		return LoginResult{}, fmt.Errorf("%w: stored credential for %s: %w", apperrors.ErrStorageFault, acct.ID, err)
	}

	token, exp, err := s.tokens.Issue(acct)
	if err != nil {
		return LoginResult{}, err
	}
	s.notify(ctx, notification.LoginAlert(acct.Email, acct.Name, time.Now().UTC()))
	return LoginResult{Token: token, ExpiresAt: exp, Account: acct}, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()
	if err := s.notifier.Send(sendCtx, msg); err != nil {
		logging.FromContext(ctx, s.logger).Warn("auth notification failed",
			slog.String("subject", msg.Subject),
			slog.String("error", notification.Fault(err).Error()),
		)
	}
}
