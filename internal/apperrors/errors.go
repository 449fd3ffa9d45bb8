package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates the referenced account (or other record) does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrWrongRole indicates the account's role does not match its position in a transfer.
	ErrWrongRole = errors.New("account role not authorized for this operation")

	// ErrInvalidCredential indicates the supplied secret does not match the stored hash.
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrInsufficientFunds occurs when the payer balance cannot cover the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConcurrencyConflict indicates the storage layer detected a write conflict. The whole
	// attempt may be retried by the caller.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")

	// ErrStorageFault wraps any other persistence failure.
	ErrStorageFault = errors.New("storage fault")

	// ErrNotificationFault is returned by notifiers; it never aborts a transfer.
	ErrNotificationFault = errors.New("notification fault")

	// ErrInvalidAmount is returned for non-positive or unrepresentable amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidInput covers other malformed requests rejected before any lookup.
	ErrInvalidInput = errors.New("invalid input")

	ErrDuplicate    = errors.New("resource already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Kind names the error class of err, or "internal" when err matches no sentinel.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrWrongRole):
		return "wrong_role"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ErrStorageFault):
		return "storage_fault"
	case errors.Is(err, ErrNotificationFault):
		return "notification_fault"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal"
	}
}

// Retryable reports whether the caller may re-run the whole attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// HTTPStatus maps err to the response status used by handlers.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case "not_found":
		return http.StatusNotFound
	case "wrong_role", "forbidden":
		return http.StatusForbidden
	case "invalid_credential", "unauthorized":
		return http.StatusUnauthorized
	case "insufficient_funds":
		return http.StatusUnprocessableEntity
	case "concurrency_conflict":
		return http.StatusConflict
	case "invalid_amount", "invalid_input", "duplicate":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
