package service

import (
	"context"
	"encoding/json"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/tutor/cache"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerLogModule = "CACHE_CONSUMER"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains asynchronous cache writes into the cache store
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	store      cache.Store
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	store cache.Store,
	logger logger.ILogger,
) IConsumerService {
	if topicName == "" {
		topicName = cache.WriteTopic
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		store:      store,
		logger:     logger,
	}
}

// Consume subscribes and processes messages in the background until ctx is done
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

// processMessage always acks: a lost cache write only costs a future miss
func (cs *consumerService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var payload cache.WriteMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerLogModule, "Failed to decode cache write", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	// the request context is gone by now
	if err := cs.store.Set(context.Background(), &payload.Entry, payload.TTL()); err != nil {
		cs.logger.Warn(consumerLogModule, "Cache write failed", map[string]interface{}{
			"key":   payload.Entry.CacheKey,
			"error": err.Error(),
		})
		return
	}

	cs.logger.Debug(consumerLogModule, "Cache entry stored", map[string]interface{}{
		"key": payload.Entry.CacheKey,
		"ttl": payload.TTL().String(),
	})
}
