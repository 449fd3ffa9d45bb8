package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/apperrors"
)

const pendingPrefix = "registration:pending:"

// Pending is a registration awaiting email confirmation. The secret is already hashed.
type Pending struct {
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Role           account.Role `json:"role"`
	CredentialHash []byte       `json:"credential_hash"`
	Balance        int64        `json:"balance"`
}

// PendingStore keeps registrations until they are confirmed or expire.
type PendingStore interface {
	Put(ctx context.Context, id string, p Pending, ttl time.Duration) error
	// Take returns and removes the entry; ErrNotFound when absent or expired.
	Take(ctx context.Context, id string) (Pending, error)
}

// RedisPendingStore keeps pending registrations in Redis with a TTL.
type RedisPendingStore struct {
	client *redis.Client
}

// NewRedisPendingStore wraps client.
func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

func (s *RedisPendingStore) Put(ctx context.Context, id string, p Pending, ttl time.Duration) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}
	if err := s.client.Set(ctx, pendingPrefix+id, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store registration: %w: %w", apperrors.ErrStorageFault, err)
	}
	return nil
}

func (s *RedisPendingStore) Take(ctx context.Context, id string) (Pending, error) {
	raw, err := s.client.GetDel(ctx, pendingPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return Pending{}, fmt.Errorf("registration %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return Pending{}, fmt.Errorf("load registration: %w: %w", apperrors.ErrStorageFault, err)
	}
	var p Pending
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Pending{}, fmt.Errorf("decode registration: %w: %w", apperrors.ErrStorageFault, err)
	}
	return p, nil
}

// MemoryPendingStore is the development fallback when Redis is not configured.
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]memoryPending
	now     func() time.Time
}

type memoryPending struct {
	p       Pending
	expires time.Time
}

// NewMemoryPendingStore creates an empty store.
func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{entries: make(map[string]memoryPending), now: time.Now}
}

func (s *MemoryPendingStore) Put(_ context.Context, id string, p Pending, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryPending{p: p, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryPendingStore) Take(_ context.Context, id string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	if !ok || s.now().After(e.expires) {
		return Pending{}, fmt.Errorf("registration %s: %w", id, apperrors.ErrNotFound)
	}
	return e.p, nil
}
