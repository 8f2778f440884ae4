package service

import (
	"context"
	"testing"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/cache"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerStoresAsyncWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewNopLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	memStore := cache.NewMemoryStore()
	require.NoError(t, NewConsumerService(pubSub, "", memStore, log).Consume(ctx))

	c := cache.NewCache(memStore, cache.NewAsyncWriter(pubSub, "", log), time.Hour, log)
	c.Put(ctx, "u1", "What is a closure?", store.AIResponse{Text: "A function with its environment."}, 0)

	assert.Eventually(t, func() bool {
		entry, hit := c.Get(ctx, "u1", "what is a closure?")
		return hit && entry.Response.Text == "A function with its environment."
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsumerSkipsUndecodableMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	memStore := cache.NewMemoryStore()
	require.NoError(t, NewConsumerService(pubSub, cache.WriteTopic, memStore, logger.NewNopLogger()).Consume(ctx))

	require.NoError(t, pubSub.Publish(cache.WriteTopic, message.NewMessage(watermill.NewUUID(), []byte("not json"))))

	valid := message.NewMessage(watermill.NewUUID(), []byte(`{"entry":{"cache_key":"k1","response":{"text":"ok"}},"ttl_seconds":60}`))
	require.NoError(t, pubSub.Publish(cache.WriteTopic, valid))

	assert.Eventually(t, func() bool { return memStore.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}
