package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-tutor-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries as JSON strings with a passive TTL
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*store.CacheEntry, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entry store.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *RedisStore) Set(ctx context.Context, entry *store.CacheEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, entry.CacheKey, raw, ttl).Err()
}
