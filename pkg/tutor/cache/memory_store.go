package cache

import (
	"context"
	"time"

	"ai-tutor-be/pkg/store"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process Store for development and tests.
// Expired entries are skipped on read and never swept.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: gocache.New(DefaultTTL, 0)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*store.CacheEntry, error) {
	if x, found := s.cache.Get(key); found {
		entry := *x.(*store.CacheEntry)
		return &entry, nil
	}
	return nil, nil
}

func (s *MemoryStore) Set(ctx context.Context, entry *store.CacheEntry, ttl time.Duration) error {
	e := *entry
	s.cache.Set(entry.CacheKey, &e, ttl)
	return nil
}

// Len reports the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
