package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/ledger"
)

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"migrate", "up"}, {"migrate", "down"}, {"account", "create"}, {"logs", "list"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestAccountFlagsInput(t *testing.T) {
	in, err := accountFlags{name: "Root", email: "root@x.io", role: "admin", balance: "12.34", password: "secret1"}.input()
	require.NoError(t, err)
	assert.Equal(t, account.RoleAdmin, in.Role)
	assert.Equal(t, int64(1234), in.Balance)

	in, err = accountFlags{role: "client", balance: "0"}.input()
	require.NoError(t, err)
	assert.Zero(t, in.Balance)

	_, err = accountFlags{role: "bank", balance: "0"}.input()
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	_, err = accountFlags{role: "client", balance: "-1"}.input()
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAmount))
	_, err = accountFlags{role: "client", balance: "lots"}.input()
	assert.Error(t, err)
}

func TestLogsListValidatesPaging(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"logs", "list", "--page", "0"})
	root.SetOut(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestPrintLogs(t *testing.T) {
	var buf bytes.Buffer
	entries := []ledger.LogEntry{{
		Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Status:       ledger.StatusFailed,
		Amount:       30_000,
		PayerID:      "payer",
		PayeeID:      "payee",
		ErrorMessage: "insufficient funds",
	}}
	require.NoError(t, printLogs(&buf, entries, 1, 20, 1))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "TIME"))
	assert.Contains(t, out, "R$300.00")
	assert.Contains(t, out, "insufficient funds")
	assert.Contains(t, out, "page 1 of 1, 1 entries")
}
