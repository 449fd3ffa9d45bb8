package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/ledger"
)

// FailureRecorder writes the FAILED audit entry for a rejected or faulted attempt.
type FailureRecorder struct {
	ledger  ledger.Ledger
	logger  *slog.Logger
	timeout time.Duration
}

// NewFailureRecorder builds a recorder whose writes are bounded by timeout.
func NewFailureRecorder(l ledger.Ledger, logger *slog.Logger, timeout time.Duration) *FailureRecorder {
	return &FailureRecorder{ledger: l, logger: logger, timeout: timeout}
}

// RecordFailure is best effort: the write survives request cancellation, and a write
// failure is only logged.
func (r *FailureRecorder) RecordFailure(ctx context.Context, payerID, payeeID string, amount int64, cause error) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	entry := ledger.LogEntry{
		PayerID:      payerID,
		PayeeID:      payeeID,
		Amount:       amount,
		Status:       ledger.StatusFailed,
		ErrorMessage: cause.Error(),
		Timestamp:    time.Now().UTC(),
	}
	if err := r.ledger.AppendLog(writeCtx, entry); err != nil {
		r.logger.Error("audit write failed",
			slog.String("payer_id", payerID),
			slog.String("payee_id", payeeID),
			slog.Int64("amount", amount),
			slog.String("cause", cause.Error()),
			slog.String("cause_kind", apperrors.Kind(cause)),
			slog.String("error", err.Error()),
		)
	}
}
