package events

import (
	"context"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	pkgEvents "ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/store"
)

// Bus is the transport the tutor events go out on
type Bus interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// Publisher abstracts event publishing for the tutor request cycle
type Publisher interface {
	PublishTurnCompleted(ctx context.Context, q *store.Query, resp *store.AIResponse, topic string)
	PublishModeSwitched(ctx context.Context, t *store.ModeTransition)
}

// BusPublisher implements Publisher on top of a Bus. A nil bus disables publishing.
type BusPublisher struct {
	bus    Bus
	logger logger.ILogger
	now    func() time.Time
}

func NewBusPublisher(bus Bus, logger logger.ILogger) *BusPublisher {
	return &BusPublisher{bus: bus, logger: logger, now: time.Now}
}

// PublishTurnCompleted emits TURN_COMPLETED after a question was answered
func (p *BusPublisher) PublishTurnCompleted(ctx context.Context, q *store.Query, resp *store.AIResponse, topic string) {
	if p.bus == nil {
		return
	}

	p.publish(ctx, pkgEvents.BaseEvent{
		Type: pkgEvents.TypeTurnCompleted,
		Data: map[string]interface{}{
			"user_id":        q.UserID,
			"session_id":     q.SessionID,
			"mode":           string(resp.Mode),
			"topic":          topic,
			"model_tier":     string(resp.ModelTier),
			"cached":         resp.Cached,
			"estimated_cost": resp.EstimatedCost,
			"confidence":     resp.Confidence,
			"source_count":   len(resp.Sources),
		},
		OccurredAt: p.now(),
	})
}

// PublishModeSwitched emits MODE_SWITCHED for every recorded transition
func (p *BusPublisher) PublishModeSwitched(ctx context.Context, t *store.ModeTransition) {
	if p.bus == nil {
		return
	}

	p.publish(ctx, pkgEvents.BaseEvent{
		Type: pkgEvents.TypeModeSwitched,
		Data: map[string]interface{}{
			"transition_id": t.ID,
			"user_id":       t.UserID,
			"session_id":    t.SessionID,
			"from_mode":     string(t.FromMode),
			"to_mode":       string(t.ToMode),
			"reason":        t.Reason,
		},
		OccurredAt: t.Timestamp,
	})
}

func (p *BusPublisher) publish(ctx context.Context, evt pkgEvents.BaseEvent) {
	if err := p.bus.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+evt.Type+" event", map[string]interface{}{"error": err.Error()})
	}
}
