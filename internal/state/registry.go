package state

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brightdesk/books-connect/internal/domain"
)

// TTL bounds how long an issued state token stays redeemable.
const TTL = 10 * time.Minute

// Store persists short-lived state records. TakeState must remove the record
// atomically with the read so two concurrent redemptions cannot both win; it
// returns nil without error when the key is absent.
type Store interface {
	SaveState(ctx context.Context, record domain.OAuthStateRecord, ttl time.Duration) error
	TakeState(ctx context.Context, stateToken string) (*domain.OAuthStateRecord, error)
}

// Registry issues and consumes the CSRF binding tokens that correlate an
// authorization request with the tenant and user that started it.
type Registry struct {
	store Store
	now   func() time.Time
}

// NewRegistry constructs a registry over the given store.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

// Create generates an opaque token, persists the binding record with the
// redemption window, and returns the token.
func (r *Registry) Create(ctx context.Context, tenantID, userID string) (string, error) {
	token := uuid.NewString()
	now := r.now().UTC()
	record := domain.OAuthStateRecord{
		StateToken: token,
		TenantID:   tenantID,
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(TTL),
	}
	if err := r.store.SaveState(ctx, record, TTL); err != nil {
		return "", fmt.Errorf("persist state: %w", err)
	}
	return token, nil
}

// Redeem consumes a state token. The take removes the record before any
// validation, so a second redemption sees StateNotFound regardless of why
// the first one succeeded or failed. Expiry past the record's window yields
// StateExpired.
func (r *Registry) Redeem(ctx context.Context, stateToken string) (*domain.OAuthStateRecord, error) {
	record, err := r.store.TakeState(ctx, stateToken)
	if err != nil {
		return nil, fmt.Errorf("take state: %w", err)
	}
	if record == nil {
		return nil, domain.ErrStateNotFound
	}
	if r.now().After(record.ExpiresAt) {
		return nil, domain.ErrStateExpired
	}
	return record, nil
}
