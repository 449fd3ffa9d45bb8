package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
	"github.com/congo-pay/tradepay/internal/ledger"
	"github.com/congo-pay/tradepay/internal/logging"
	"github.com/congo-pay/tradepay/internal/notification"
)

type outbox struct {
	sent []notification.Message
}

func (o *outbox) Send(_ context.Context, m notification.Message) error {
	o.sent = append(o.sent, m)
	return nil
}

func newTestService(t *testing.T) (*Service, *ledger.InMemory, *outbox, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := NewTokenManager("test-secret", "tradepay-test", time.Hour)
	require.NoError(t, err)

	store := ledger.NewInMemory()
	box := &outbox{}
	svc := NewService(store, NewRedisPendingStore(client), tokens, box, logging.Discard(), Config{
		BackendURL:      "http://api.test",
		RegistrationTTL: time.Hour,
		NotifyTimeout:   time.Second,
	})
	return svc, store, box, mr
}

func TestRegisterConfirmLogin(t *testing.T) {
	svc, store, box, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "Ana@Shop.io", Password: "secret1", Role: "merchant", Balance: 5_000})
	require.NoError(t, err)
	require.Len(t, box.sent, 1)
	assert.Equal(t, "ana@shop.io", box.sent[0].To)
	assert.Contains(t, box.sent[0].Body, "http://api.test/api/v1/auth/confirm/"+id)

	_, err = store.GetByEmail(ctx, "ana@shop.io")
	require.ErrorIs(t, err, apperrors.ErrNotFound, "account must not exist before confirmation")

	acct, err := svc.Confirm(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, account.RoleMerchant, acct.Role)
	assert.Equal(t, int64(5_000), acct.Balance)

	_, err = svc.Confirm(ctx, id)
	require.ErrorIs(t, err, apperrors.ErrNotFound, "confirmation is single use")

	res, err := svc.Login(ctx, "ANA@shop.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, res.Account.ID)

	claims, err := svc.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, claims.Subject)
	assert.Equal(t, account.RoleMerchant, claims.Role)
	assert.Equal(t, "tradepay-test", claims.Issuer)
	assert.Len(t, box.sent, 2, "login alert expected")
}

func TestRegisterRejects(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()
	existing := ledger.SeedAccount(store, account.RoleClient, 0, "secret1")

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"duplicate", RegisterInput{Name: "X", Email: existing.Email, Password: "secret1", Role: account.RoleClient}, apperrors.ErrDuplicate},
		{"admin", RegisterInput{Name: "X", Email: "x@y.io", Password: "secret1", Role: account.RoleAdmin}, apperrors.ErrInvalidInput},
		{"short password", RegisterInput{Name: "X", Email: "x@y.io", Password: "123", Role: account.RoleClient}, apperrors.ErrInvalidInput},
		{"bad role", RegisterInput{Name: "X", Email: "x@y.io", Password: "secret1", Role: "BANK"}, apperrors.ErrInvalidInput},
		{"negative balance", RegisterInput{Name: "X", Email: "x@y.io", Password: "secret1", Role: account.RoleClient, Balance: -1}, apperrors.ErrInvalidAmount},
	}
	for _, tc := range cases {
		_, err := svc.Register(ctx, tc.in)
		assert.ErrorIs(t, err, tc.want, tc.name)
	}
}

func TestPendingRegistrationExpires(t *testing.T) {
	svc, _, _, mr := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, RegisterInput{Name: "Bo", Email: "bo@x.io", Password: "secret1", Role: account.RoleSupplier})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = svc.Confirm(ctx, id)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	acct := ledger.SeedAccount(store, account.RoleClient, 0, "secret1")

	_, err := svc.Login(context.Background(), acct.Email, "wrong-pass")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
	_, err = svc.Login(context.Background(), "ghost@x.io", "secret1")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestLoginWithCorruptStoredHash(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	require.NoError(t, store.Create(context.Background(), account.Account{
		ID:             uuid.NewString(),
		Name:           "Broken",
		Email:          "broken@x.io",
		Role:           account.RoleClient,
		CredentialHash: []byte("not-a-bcrypt-hash"),
	}))

	_, err := svc.Login(context.Background(), "broken@x.io", "secret1")
	require.ErrorIs(t, err, apperrors.ErrStorageFault)
	require.NotErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestTokenManagerRejectsTampering(t *testing.T) {
	m, err := NewTokenManager("k1", "iss", time.Minute)
	require.NoError(t, err)
	other, err := NewTokenManager("k2", "iss", time.Minute)
	require.NoError(t, err)

	token, _, err := m.Issue(account.Account{ID: "acct-1", Role: account.RoleAdmin})
	require.NoError(t, err)

	_, err = other.Parse(token)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	wrongIssuer, err := NewTokenManager("k1", "someone-else", time.Minute)
	require.NoError(t, err)
	_, err = wrongIssuer.Parse(token)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Parse(token)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = NewTokenManager("", "iss", time.Minute)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "secret"))
}

func TestMemoryPendingStore(t *testing.T) {
	s := NewMemoryPendingStore()
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "a", Pending{Email: "a@b.c"}, time.Minute))
	p, err := s.Take(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", p.Email)

	require.NoError(t, s.Put(ctx, "b", Pending{}, time.Minute))
	s.now = func() time.Time { return now.Add(time.Hour) }
	_, err = s.Take(ctx, "b")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
