package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"ai-tutor-be/pkg/store"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping redis test: REDIS_URL not set")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	s := NewRedisStore(client)
	key := Key("redis-test-user", "what is recursion")
	defer client.Del(ctx, key)

	miss, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, miss)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Set(ctx, &store.CacheEntry{
		CacheKey:  key,
		Response:  store.AIResponse{Text: "answer", Mode: store.ModeTutor},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Minute),
	}, time.Minute))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "answer", got.Response.Text)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
