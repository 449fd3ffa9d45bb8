package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/congo-pay/tradepay/internal/apperrors"
)

// Message describes an outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger. Used in development.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "to", message.To, "subject", message.Subject, "body", message.Body)
	return nil
}

// Fault wraps err as a notification fault unless it already is one.
func Fault(err error) error {
	if err == nil || errors.Is(err, apperrors.ErrNotificationFault) {
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrNotificationFault, err)
}

func validate(message Message) error {
	if message.To == "" {
		return Fault(errors.New("recipient is required"))
	}
	return nil
}
