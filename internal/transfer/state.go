package transfer

import (
	"log/slog"

	"github.com/congo-pay/tradepay/internal/apperrors"
)

// State is a step of a single transfer attempt.
type State string

const (
	StateStarted           State = "started"
	StateCredentialChecked State = "credential_checked"
	StatePayerValidated    State = "payer_validated"
	StateBalanceChecked    State = "balance_checked"
	StatePayeeValidated    State = "payee_validated"
	StateCommitted         State = "committed"
	StateFailed            State = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateFailed
}

// attempt tracks the state of one transfer and logs each transition.
type attempt struct {
	state  State
	logger *slog.Logger
}

func newAttempt(logger *slog.Logger) *attempt {
	a := &attempt{state: StateStarted, logger: logger}
	logger.Debug("transfer state", slog.String("state", string(a.state)))
	return a
}

func (a *attempt) advance(next State) {
	if a.state.Terminal() {
		return
	}
	a.state = next
	a.logger.Debug("transfer state", slog.String("state", string(next)))
}

// fail moves to StateFailed and remembers the step that was reached.
func (a *attempt) fail(cause error) {
	if a.state.Terminal() {
		return
	}
	reached := a.state
	a.state = StateFailed
	a.logger.Warn("transfer failed",
		slog.String("reached", string(reached)),
		slog.String("kind", apperrors.Kind(cause)),
		slog.String("error", cause.Error()),
	)
}
