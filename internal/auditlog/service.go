package auditlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/ledger"
	"github.com/congo-pay/tradepay/internal/logging"
	"github.com/congo-pay/tradepay/internal/notification"
)

// MaxLimit caps the page size.
const MaxLimit = 100

// Page is one page of the audit trail, newest first.
type Page struct {
	Logs        []ledger.LogEntry `json:"logs"`
	CurrentPage int               `json:"current_page"`
	TotalPages  int               `json:"total_pages"`
	TotalLogs   int               `json:"total_logs"`
}

// Service serves the audit trail to administrators.
type Service struct {
	accounts      account.Repository
	ledger        ledger.Ledger
	notifier      notification.Notifier
	logger        *slog.Logger
	notifyTimeout time.Duration
}

// NewService wires the audit log service. A nil notifier skips summary emails.
func NewService(accounts account.Repository, l ledger.Ledger, notifier notification.Notifier, logger *slog.Logger, notifyTimeout time.Duration) *Service {
	return &Service{accounts: accounts, ledger: l, notifier: notifier, logger: logger, notifyTimeout: notifyTimeout}
}

// List returns page (1-based) of size limit. The requester's role is re-read from the
// store so a stale token cannot outlive a role change.
func (s *Service) List(ctx context.Context, requesterID string, page, limit int) (Page, error) {
	if page < 1 || limit < 1 {
		return Page{}, fmt.Errorf("%w: page and limit must be positive", apperrors.ErrInvalidInput)
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	admin, err := s.accounts.Get(ctx, requesterID)
	if err != nil {
		return Page{}, err
	}
	if admin.Role != account.RoleAdmin {
		return Page{}, fmt.Errorf("%w: audit log requires %s", apperrors.ErrForbidden, account.RoleAdmin)
	}

	total, err := s.ledger.CountLogs(ctx)
	if err != nil {
		return Page{}, err
	}
	entries, err := s.ledger.ListLogs(ctx, (page-1)*limit, limit)
	if err != nil {
		return Page{}, err
	}
	if len(entries) == 0 {
		return Page{}, fmt.Errorf("transaction logs page %d: %w", page, apperrors.ErrNotFound)
	}

	out := Page{
		Logs:        entries,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		TotalLogs:   total,
	}
	s.sendSummary(ctx, admin, out)
	return out, nil
}

func (s *Service) sendSummary(ctx context.Context, admin account.Account, p Page) {
	if s.notifier == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	msg := notification.LogSummary(admin.Email, p.Logs, p.CurrentPage, p.TotalPages, p.TotalLogs)
	if err := s.notifier.Send(sendCtx, msg); err != nil {
		logging.FromContext(ctx, s.logger).Warn("log summary email failed", slog.String("error", notification.Fault(err).Error()))
	}
}
