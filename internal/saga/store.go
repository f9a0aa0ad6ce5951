package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/surajpaudel2/sports-ticketing/pkg/redis"
)

// Store persists saga instances so workflows can be recovered after a
// crash between steps.
type Store interface {
	Save(ctx context.Context, instance *Instance) error
	Get(ctx context.Context, id string) (*Instance, error)
	// ListUnfinished returns instances not yet in a terminal state
	ListUnfinished(ctx context.Context) ([]*Instance, error)
}

// MemoryStore keeps instances in process memory. Single process only.
type MemoryStore struct {
	mu        sync.Mutex
	instances map[string]*Instance
}

// NewMemoryStore creates an empty in-memory saga store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{instances: make(map[string]*Instance)}
}

func (s *MemoryStore) Save(ctx context.Context, instance *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *instance
	clone.Steps = append([]Step(nil), instance.Steps...)
	s.instances[instance.ID] = &clone
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	instance, ok := s.instances[id]
	if !ok {
		return nil, fmt.Errorf("saga instance %s not found", id)
	}
	clone := *instance
	clone.Steps = append([]Step(nil), instance.Steps...)
	return &clone, nil
}

func (s *MemoryStore) ListUnfinished(ctx context.Context) ([]*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var unfinished []*Instance
	for _, instance := range s.instances {
		if !instance.Finished() {
			clone := *instance
			clone.Steps = append([]Step(nil), instance.Steps...)
			unfinished = append(unfinished, &clone)
		}
	}
	return unfinished, nil
}

const (
	sagaKeyPrefix = "saga:instance:"
	// Finished instances stay visible for a day for inspection, then expire
	sagaFinishedTTL = 24 * time.Hour
)

// RedisStore persists instances as JSON in Redis, shared across processes
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed saga store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, instance *Instance) error {
	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to marshal saga instance: %w", err)
	}

	var ttl time.Duration
	if instance.Finished() {
		ttl = sagaFinishedTTL
	}
	if err := s.client.Set(ctx, sagaKeyPrefix+instance.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save saga instance: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Instance, error) {
	data, err := s.client.Get(ctx, sagaKeyPrefix+id).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, fmt.Errorf("saga instance %s not found", id)
		}
		return nil, fmt.Errorf("failed to load saga instance: %w", err)
	}

	var instance Instance
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal saga instance: %w", err)
	}
	return &instance, nil
}

func (s *RedisStore) ListUnfinished(ctx context.Context) ([]*Instance, error) {
	keys, err := s.client.Keys(ctx, sagaKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan saga instances: %w", err)
	}

	var unfinished []*Instance
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if err == goredis.Nil {
				continue // expired between scan and get
			}
			return nil, fmt.Errorf("failed to load saga instance: %w", err)
		}

		var instance Instance
		if err := json.Unmarshal(data, &instance); err != nil {
			return nil, fmt.Errorf("failed to unmarshal saga instance: %w", err)
		}
		if !instance.Finished() {
			unfinished = append(unfinished, &instance)
		}
	}
	return unfinished, nil
}
