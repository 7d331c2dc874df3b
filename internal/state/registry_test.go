package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brightdesk/books-connect/internal/domain"
)

func TestRegistry_CreateAndRedeem(t *testing.T) {
	store := newMemoryStore()
	registry := NewRegistry(store)
	ctx := context.Background()

	token, err := registry.Create(ctx, "w1", "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	record, err := registry.Redeem(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "w1", record.TenantID)
	require.Equal(t, "user-1", record.UserID)
	require.Equal(t, TTL, record.ExpiresAt.Sub(record.CreatedAt))
}

func TestRegistry_RedeemIsSingleUse(t *testing.T) {
	store := newMemoryStore()
	registry := NewRegistry(store)
	ctx := context.Background()

	token, err := registry.Create(ctx, "w1", "user-1")
	require.NoError(t, err)

	_, err = registry.Redeem(ctx, token)
	require.NoError(t, err)

	_, err = registry.Redeem(ctx, token)
	require.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestRegistry_RedeemUnknownToken(t *testing.T) {
	registry := NewRegistry(newMemoryStore())

	_, err := registry.Redeem(context.Background(), "never-issued")
	require.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestRegistry_RedeemPastExpiry(t *testing.T) {
	store := newMemoryStore()
	registry := NewRegistry(store)
	ctx := context.Background()

	issued := time.Now().UTC()
	registry.now = func() time.Time { return issued }
	token, err := registry.Create(ctx, "w1", "user-1")
	require.NoError(t, err)

	registry.now = func() time.Time { return issued.Add(TTL + time.Second) }
	_, err = registry.Redeem(ctx, token)
	require.ErrorIs(t, err, domain.ErrStateExpired)

	// Expired redemption still consumed the record.
	_, err = registry.Redeem(ctx, token)
	require.ErrorIs(t, err, domain.ErrStateNotFound)
}

// ---- Test store ----

type memoryStore struct {
	mu   sync.Mutex
	data map[string]domain.OAuthStateRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]domain.OAuthStateRecord{}}
}

func (m *memoryStore) SaveState(_ context.Context, record domain.OAuthStateRecord, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[record.StateToken] = record
	return nil
}

func (m *memoryStore) TakeState(_ context.Context, stateToken string) (*domain.OAuthStateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.data[stateToken]
	if !ok {
		return nil, nil
	}
	delete(m.data, stateToken)
	return &record, nil
}
