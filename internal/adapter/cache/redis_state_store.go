package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightdesk/books-connect/internal/domain"
	"github.com/brightdesk/books-connect/internal/state"
)

const statePrefix = "connect:state:"

// RedisStateStore implements state.Store backed by Redis. The key TTL tracks
// the record's redemption window, and GETDEL makes redemption atomic: of any
// number of concurrent takes for one token, exactly one observes the record.
type RedisStateStore struct {
	client redis.UniversalClient
}

var _ state.Store = (*RedisStateStore)(nil)

// NewRedisStateStore constructs a Redis-backed state store.
func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// SaveState stores the encoded state record with TTL.
func (s *RedisStateStore) SaveState(ctx context.Context, record domain.OAuthStateRecord, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(record.StateToken), payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// TakeState atomically reads and removes the state record.
func (s *RedisStateStore) TakeState(ctx context.Context, stateToken string) (*domain.OAuthStateRecord, error) {
	bytes, err := s.client.GetDel(ctx, stateKey(stateToken)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("take state: %w", err)
	}
	var record domain.OAuthStateRecord
	if err := json.Unmarshal(bytes, &record); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &record, nil
}

func stateKey(stateToken string) string {
	return statePrefix + stateToken
}
