package notification

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/ledger"
	"github.com/congo-pay/tradepay/internal/logging"
)

type recordingNotifier struct {
	sent []Message
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, m Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func TestSMTPNotifierSend(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.local", Port: 2525, User: "bot@tradepay.dev", Password: "pw"})
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := n.Send(context.Background(), Message{To: "a@b.c", Subject: "Hi\r\nBcc: x@y.z", Body: "line1\nline2"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, "bot@tradepay.dev", gotFrom)
	assert.Equal(t, []string{"a@b.c"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Hi  Bcc: x@y.z\r\n")
	assert.Contains(t, gotMsg, "line1\r\nline2")
}

func TestSMTPNotifierFaults(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.local", Port: 25})
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay refused") }

	err := n.Send(context.Background(), Message{To: "a@b.c"})
	require.ErrorIs(t, err, apperrors.ErrNotificationFault)

	err = n.Send(context.Background(), Message{})
	require.ErrorIs(t, err, apperrors.ErrNotificationFault)
}

func TestSMTPNotifierHonoursContext(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.local", Port: 25})
	release := make(chan struct{})
	defer close(release)
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := n.Send(ctx, Message{To: "a@b.c"})
	require.ErrorIs(t, err, apperrors.ErrNotificationFault)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	q := NewQueueNotifier(client, "mail")
	require.NoError(t, q.Send(ctx, Message{To: "one@x.y", Subject: "1"}))
	require.NoError(t, q.Send(ctx, Message{To: "two@x.y", Subject: "2"}))

	sink := &recordingNotifier{}
	w := NewWorker(client, "mail", sink, logging.Discard(), time.Second)
	w.block = 50 * time.Millisecond

	for i := 0; i < 2; i++ {
		took, err := w.processOne(ctx)
		require.NoError(t, err)
		require.True(t, took)
	}
	require.Len(t, sink.sent, 2)
	assert.Equal(t, "one@x.y", sink.sent[0].To, "queue must be FIFO")
	assert.Equal(t, "two@x.y", sink.sent[1].To)
}

func TestWorkerReportsDeliveryFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	require.NoError(t, NewQueueNotifier(client, "mail").Send(ctx, Message{To: "x@y.z"}))
	w := NewWorker(client, "mail", &recordingNotifier{err: errors.New("down")}, logging.Discard(), time.Second)
	w.block = 50 * time.Millisecond

	took, err := w.processOne(ctx)
	assert.True(t, took)
	assert.Error(t, err)
}

func TestTemplates(t *testing.T) {
	txn := ledger.Transaction{ID: "tx-1", Amount: 30_000, CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	msg := TransferConfirmation("c@x.y", "Carla", "Shop", txn)
	assert.Equal(t, "c@x.y", msg.To)
	assert.Contains(t, msg.Body, "R$300.00")
	assert.Contains(t, msg.Body, "tx-1")

	summary := LogSummary("admin@x.y", []ledger.LogEntry{
		{Status: ledger.StatusFailed, Amount: 100, ErrorMessage: "insufficient funds", PayerID: "p", PayeeID: "q"},
	}, 1, 3, 21)
	assert.True(t, strings.HasPrefix(summary.Body, "Transaction log report, page 1 of 3 (21 entries total)"))
	assert.Contains(t, summary.Body, "(insufficient funds)")
}
