package cache

import (
	"context"
	"encoding/json"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// WriteTopic carries cache writes from the request path to the background consumer
const WriteTopic = "tutor.cache.write"

// WriteMessage is the payload published on WriteTopic
type WriteMessage struct {
	Entry      store.CacheEntry `json:"entry"`
	TTLSeconds int64            `json:"ttl_seconds"`
}

func (m WriteMessage) TTL() time.Duration {
	return time.Duration(m.TTLSeconds) * time.Second
}

// AsyncWriter hands writes to a watermill publisher so they outlive the request
type AsyncWriter struct {
	publisher message.Publisher
	topic     string
	logger    logger.ILogger
}

func NewAsyncWriter(publisher message.Publisher, topic string, log logger.ILogger) *AsyncWriter {
	if topic == "" {
		topic = WriteTopic
	}
	return &AsyncWriter{publisher: publisher, topic: topic, logger: log}
}

func (w *AsyncWriter) Write(ctx context.Context, entry *store.CacheEntry, ttl time.Duration) {
	payload, err := json.Marshal(WriteMessage{Entry: *entry, TTLSeconds: int64(ttl / time.Second)})
	if err != nil {
		w.logger.Warn(logModule, "Failed to encode cache write", map[string]interface{}{
			"key":   entry.CacheKey,
			"error": err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := w.publisher.Publish(w.topic, msg); err != nil {
		w.logger.Warn(logModule, "Failed to publish cache write", map[string]interface{}{
			"key":   entry.CacheKey,
			"error": err.Error(),
		})
	}
}
