package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/surajpaudel2/sports-ticketing/pkg/redis"
)

// MemoryTokenStore dedupes compensation tokens in process memory
type MemoryTokenStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryTokenStore creates an empty in-memory token store
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{seen: make(map[string]struct{})}
}

func (s *MemoryTokenStore) Consume(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[token]; ok {
		return false, nil
	}
	s.seen[token] = struct{}{}
	return true, nil
}

func (s *MemoryTokenStore) Release(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.seen, token)
	return nil
}

const (
	compensationKeyPrefix = "compensation:token:"
	// Tokens outlive the recovery sweeper's staleness window by a wide
	// margin so a re-issued compensation still dedupes.
	compensationTokenTTL = 24 * time.Hour
)

// RedisTokenStore dedupes compensation tokens across processes via SetNX
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a redis-backed token store
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Consume(ctx context.Context, token string) (bool, error) {
	return s.client.SetNX(ctx, compensationKeyPrefix+token, 1, compensationTokenTTL).Result()
}

func (s *RedisTokenStore) Release(ctx context.Context, token string) error {
	return s.client.Del(ctx, compensationKeyPrefix+token).Err()
}
