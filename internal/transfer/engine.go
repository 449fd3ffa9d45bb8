package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/ledger"
	"github.com/congo-pay/tradepay/internal/logging"
	"github.com/congo-pay/tradepay/internal/notification"
)

// Request describes one party-initiated transfer. Amount is in minor units.
type Request struct {
	PayerID string
	PayeeID string
	Amount  int64
	Secret  string
}

// Config bounds the engine's post-commit side effects.
type Config struct {
	NotifyTimeout time.Duration
	AuditTimeout  time.Duration
}

// flow pairs the roles required of payer and payee.
type flow struct {
	name  string
	payer account.Role
	payee account.Role
}

var (
	clientToMerchant   = flow{name: "client_to_merchant", payer: account.RoleClient, payee: account.RoleMerchant}
	merchantToSupplier = flow{name: "merchant_to_supplier", payer: account.RoleMerchant, payee: account.RoleSupplier}
)

// Engine orchestrates transfers between accounts and keeps the audit trail complete.
type Engine struct {
	ledger        ledger.Ledger
	verifier      *CredentialVerifier
	roles         *RoleValidator
	recorder      *FailureRecorder
	notifier      notification.Notifier
	logger        *slog.Logger
	notifyTimeout time.Duration
}

// NewEngine wires the engine. A nil notifier disables confirmations.
func NewEngine(accounts account.Repository, l ledger.Ledger, notifier notification.Notifier, logger *slog.Logger, cfg Config) *Engine {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	if cfg.AuditTimeout <= 0 {
		cfg.AuditTimeout = 3 * time.Second
	}
	return &Engine{
		ledger:        l,
		verifier:      NewCredentialVerifier(accounts),
		roles:         NewRoleValidator(accounts),
		recorder:      NewFailureRecorder(l, logger, cfg.AuditTimeout),
		notifier:      notifier,
		logger:        logger,
		notifyTimeout: cfg.NotifyTimeout,
	}
}

// TransferClientToMerchant moves funds from a CLIENT to a MERCHANT.
func (e *Engine) TransferClientToMerchant(ctx context.Context, req Request) (ledger.Transaction, error) {
	return e.transfer(ctx, clientToMerchant, req)
}

// TransferMerchantToSupplier moves funds from a MERCHANT to a SUPPLIER.
func (e *Engine) TransferMerchantToSupplier(ctx context.Context, req Request) (ledger.Transaction, error) {
	return e.transfer(ctx, merchantToSupplier, req)
}

func (e *Engine) transfer(ctx context.Context, f flow, req Request) (ledger.Transaction, error) {
	log := logging.FromContext(ctx, e.logger).With(
		slog.String("flow", f.name),
		slog.String("payer_id", req.PayerID),
		slog.String("payee_id", req.PayeeID),
		slog.Int64("amount", req.Amount),
	)

	// Malformed requests never reach the store and are not audited.
	if err := validateRequest(req); err != nil {
		log.Debug("transfer rejected", slog.String("error", err.Error()))
		return ledger.Transaction{}, err
	}

	a := newAttempt(log)
	payer, payee, txn, err := e.run(ctx, a, f, req)
	if err != nil {
		a.fail(err)
		e.recorder.RecordFailure(ctx, req.PayerID, req.PayeeID, req.Amount, err)
		return ledger.Transaction{}, err
	}
	a.advance(StateCommitted)
	log.Info("transfer committed", slog.String("transaction_id", txn.ID))

	e.notify(ctx, log, payer, payee, txn)
	return txn, nil
}

func (e *Engine) run(ctx context.Context, a *attempt, f flow, req Request) (account.Account, account.Account, ledger.Transaction, error) {
	var none account.Account

	if err := e.verifier.Verify(ctx, req.PayerID, req.Secret); err != nil {
		return none, none, ledger.Transaction{}, err
	}
	a.advance(StateCredentialChecked)

	payer, err := e.roles.Require(ctx, req.PayerID, f.payer)
	if err != nil {
		return none, none, ledger.Transaction{}, err
	}
	a.advance(StatePayerValidated)

	if err := EnsureSufficient(payer, req.Amount); err != nil {
		return none, none, ledger.Transaction{}, err
	}
	a.advance(StateBalanceChecked)

	payee, err := e.roles.Require(ctx, req.PayeeID, f.payee)
	if err != nil {
		return none, none, ledger.Transaction{}, err
	}
	a.advance(StatePayeeValidated)

	txn, err := e.ledger.Move(ctx, req.PayerID, req.PayeeID, req.Amount)
	if err != nil {
		return none, none, ledger.Transaction{}, err
	}
	return payer, payee, txn, nil
}

// notify sends the payer's confirmation. The transfer is already committed, so the
// caller's cancellation no longer applies and a failure only gets logged.
func (e *Engine) notify(ctx context.Context, log *slog.Logger, payer, payee account.Account, txn ledger.Transaction) {
	if e.notifier == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.notifyTimeout)
	defer cancel()

	msg := notification.TransferConfirmation(payer.Email, payer.Name, payee.Name, txn)
	if err := e.notifier.Send(sendCtx, msg); err != nil {
		err = notification.Fault(err)
		log.Warn("transfer notification failed",
			slog.String("transaction_id", txn.ID),
			slog.String("kind", apperrors.Kind(err)),
			slog.String("error", err.Error()),
		)
	}
}

func validateRequest(req Request) error {
	if req.Amount <= 0 {
		return apperrors.ErrInvalidAmount
	}
	if _, err := uuid.Parse(req.PayerID); err != nil {
		return fmt.Errorf("%w: payer id must be a uuid", apperrors.ErrInvalidInput)
	}
	if _, err := uuid.Parse(req.PayeeID); err != nil {
		return fmt.Errorf("%w: payee id must be a uuid", apperrors.ErrInvalidInput)
	}
	if req.PayerID == req.PayeeID {
		return fmt.Errorf("%w: payer and payee must differ", apperrors.ErrInvalidInput)
	}
	if req.Secret == "" {
		return fmt.Errorf("%w: password is required", apperrors.ErrInvalidInput)
	}
	return nil
}
