package cache

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/store"

	"github.com/cespare/xxhash/v2"
)

const (
	logModule  = "CACHE"
	DefaultTTL = 24 * time.Hour
)

// Store is a key-value backend for cache entries. Get returns nil, nil on a miss.
type Store interface {
	Get(ctx context.Context, key string) (*store.CacheEntry, error)
	Set(ctx context.Context, entry *store.CacheEntry, ttl time.Duration) error
}

// Writer persists entries; implementations log failures and never return them
type Writer interface {
	Write(ctx context.Context, entry *store.CacheEntry, ttl time.Duration)
}

// Key derives the per-user cache key for a query.
// Queries that differ only in case or surrounding whitespace share a key.
func Key(userID, query string) string {
	h := xxhash.New()
	_, _ = h.WriteString(userID)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(strings.ToLower(strings.TrimSpace(query)))
	sum := h.Sum(nil)
	return "resp:" + userID + ":" + hex.EncodeToString(sum)
}

type Cache struct {
	store  Store
	writer Writer
	ttl    time.Duration
	logger logger.ILogger
	now    func() time.Time
}

func NewCache(s Store, w Writer, ttl time.Duration, log logger.ILogger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if w == nil {
		w = NewSyncWriter(s, log)
	}
	return &Cache{store: s, writer: w, ttl: ttl, logger: log, now: time.Now}
}

// Get returns a live entry. Backend failures and expired entries are misses.
func (c *Cache) Get(ctx context.Context, userID, query string) (*store.CacheEntry, bool) {
	key := Key(userID, query)
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn(logModule, "Cache read failed, treating as miss", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	if entry == nil {
		return nil, false
	}
	if entry.Expired(c.now()) {
		return nil, false
	}
	return entry, true
}

// Put stores the response under the user's key. It never fails.
func (c *Cache) Put(ctx context.Context, userID, query string, response store.AIResponse, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()
	response.Cached = false
	entry := &store.CacheEntry{
		CacheKey:  Key(userID, query),
		Response:  response,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	c.writer.Write(ctx, entry, ttl)
}

// TTL is the default entry lifetime
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// SyncWriter writes on the caller's goroutine
type SyncWriter struct {
	store  Store
	logger logger.ILogger
}

func NewSyncWriter(s Store, log logger.ILogger) *SyncWriter {
	return &SyncWriter{store: s, logger: log}
}

func (w *SyncWriter) Write(ctx context.Context, entry *store.CacheEntry, ttl time.Duration) {
	if err := w.store.Set(ctx, entry, ttl); err != nil {
		w.logger.Warn(logModule, "Cache write failed", map[string]interface{}{
			"key":   entry.CacheKey,
			"error": err.Error(),
		})
	}
}
