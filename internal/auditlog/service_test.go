package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/httpx"
	"github.com/congo-pay/tradepay/internal/ledger"
	"github.com/congo-pay/tradepay/internal/logging"
	"github.com/congo-pay/tradepay/internal/notification"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, msg notification.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func seedLogs(t *testing.T, store *ledger.InMemory, n int) {
	t.Helper()
	payer := ledger.SeedAccount(store, account.RoleClient, int64(n), "secret1")
	payee := ledger.SeedAccount(store, account.RoleMerchant, 0, "secret1")
	for i := 0; i < n; i++ {
		_, err := store.Move(context.Background(), payer.ID, payee.ID, 1)
		require.NoError(t, err)
	}
}

func TestListPaginates(t *testing.T) {
	store := ledger.NewInMemory()
	admin := ledger.SeedAccount(store, account.RoleAdmin, 0, "secret1")
	seedLogs(t, store, 5)

	notifier := new(mockNotifier)
	notifier.On("Send", mock.Anything, mock.MatchedBy(func(m notification.Message) bool {
		return m.To == admin.Email && m.Subject == "Transaction Log Report"
	})).Return(nil)
	svc := NewService(store, store, notifier, logging.Discard(), time.Second)

	page, err := svc.List(context.Background(), admin.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 5, page.TotalLogs)
	assert.Len(t, page.Logs, 2)
	notifier.AssertNumberOfCalls(t, "Send", 1)
}

func TestListRejects(t *testing.T) {
	store := ledger.NewInMemory()
	admin := ledger.SeedAccount(store, account.RoleAdmin, 0, "secret1")
	client := ledger.SeedAccount(store, account.RoleClient, 0, "secret1")
	svc := NewService(store, store, nil, logging.Discard(), time.Second)
	ctx := context.Background()

	_, err := svc.List(ctx, admin.ID, 0, 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = svc.List(ctx, admin.ID, 1, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = svc.List(ctx, client.ID, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = svc.List(ctx, admin.ID, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "empty trail")
}

func TestListSurvivesSummaryFailure(t *testing.T) {
	store := ledger.NewInMemory()
	admin := ledger.SeedAccount(store, account.RoleAdmin, 0, "secret1")
	seedLogs(t, store, 1)

	notifier := new(mockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	svc := NewService(store, store, notifier, logging.Discard(), time.Second)

	page, err := svc.List(context.Background(), admin.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Logs, 1)
}

func TestHandlerList(t *testing.T) {
	store := ledger.NewInMemory()
	admin := ledger.SeedAccount(store, account.RoleAdmin, 0, "secret1")
	seedLogs(t, store, 3)
	h := NewHandler(NewService(store, store, nil, logging.Discard(), time.Second))

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(logging.Discard())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", admin.ID)
		return c.Next()
	})
	app.Get("/logs", h.List)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/logs?page=1&limit=2", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 3, page.TotalLogs)
	assert.Len(t, page.Logs, 2)
	assert.Equal(t, ledger.StatusSuccess, page.Logs[0].Status)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/logs?page=9&limit=2", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/logs?page=-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
