package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/congo-pay/tradepay/internal/ledger"
	"github.com/congo-pay/tradepay/internal/money"
)

// TransferConfirmation is sent to the payer after a committed transfer.
func TransferConfirmation(to, payerName, payeeName string, txn ledger.Transaction) Message {
	return Message{
		To:      to,
		Subject: "Transaction Confirmation",
		Body: fmt.Sprintf("Hello %s,\n\nYour payment of %s to %s was completed.\n\nTransaction: %s\nDate: %s\n",
			payerName, money.Format(txn.Amount), payeeName, txn.ID, txn.CreatedAt.Format(time.RFC1123)),
	}
}

// LoginAlert is sent after a successful login.
func LoginAlert(to, name string, at time.Time) Message {
	return Message{
		To:      to,
		Subject: "New login to your account",
		Body:    fmt.Sprintf("Hello %s,\n\nA new login to your account was recorded at %s.\nIf this was not you, change your password.\n", name, at.Format(time.RFC1123)),
	}
}

// RegistrationConfirmation carries the link that activates a pending registration.
func RegistrationConfirmation(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Confirm your registration",
		Body:    fmt.Sprintf("Hello %s,\n\nConfirm your account by opening the link below:\n%s\n", name, link),
	}
}

// LogSummary renders one page of the audit trail as text.
func LogSummary(to string, entries []ledger.LogEntry, page, totalPages, total int) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Transaction log report, page %d of %d (%d entries total)\n\n", page, totalPages, total)
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %-7s  %s  %s -> %s", e.Timestamp.Format(time.RFC3339), e.Status, money.Format(e.Amount), e.PayerID, e.PayeeID)
		if e.ErrorMessage != "" {
			fmt.Fprintf(&b, "  (%s)", e.ErrorMessage)
		}
		b.WriteString("\n")
	}
	return Message{To: to, Subject: "Transaction Log Report", Body: b.String()}
}
