package store

import "time"

const (
	// DefaultHistoryCap bounds the global history kept on a session
	DefaultHistoryCap = 50

	DefaultTopic = "general"
)

// TopicThread tracks a sub-conversation scoped to one subject
type TopicThread struct {
	History            []ConversationTurn `json:"history"`
	UnderstandingLevel float64            `json:"understanding_level"`
}

// Session represents the durable per-conversation state envelope
type Session struct {
	SessionID    string                  `json:"session_id"`
	UserID       string                  `json:"user_id"`
	Mode         Mode                    `json:"mode"`
	TopicThreads map[string]*TopicThread `json:"topic_threads"`
	History      []ConversationTurn      `json:"history"` // global, capped
	LastUpdated  time.Time               `json:"last_updated"`

	// Version guards conditional writes in the session store
	Version int64 `json:"version"`
}

// NewSession creates an empty active session
func NewSession(sessionID, userID string, mode Mode, now time.Time) *Session {
	return &Session{
		SessionID:    sessionID,
		UserID:       userID,
		Mode:         mode,
		TopicThreads: make(map[string]*TopicThread),
		History:      []ConversationTurn{},
		LastUpdated:  now,
	}
}

// IsExpired reports whether the session has been idle longer than window
func (s *Session) IsExpired(now time.Time, window time.Duration) bool {
	if window <= 0 {
		return false
	}
	return now.Sub(s.LastUpdated) > window
}

// AppendTurns appends to the global history, dropping the oldest entries beyond limit.
func (s *Session) AppendTurns(limit int, turns ...ConversationTurn) {
	if limit <= 0 {
		limit = DefaultHistoryCap
	}
	s.History = append(s.History, turns...)
	if over := len(s.History) - limit; over > 0 {
		trimmed := make([]ConversationTurn, limit)
		copy(trimmed, s.History[over:])
		s.History = trimmed
	}
}

// Thread returns the topic thread, creating it if needed
func (s *Session) Thread(topic string) *TopicThread {
	if topic == "" {
		topic = DefaultTopic
	}
	if s.TopicThreads == nil {
		s.TopicThreads = make(map[string]*TopicThread)
	}
	thread, ok := s.TopicThreads[topic]
	if !ok {
		thread = &TopicThread{History: []ConversationTurn{}}
		s.TopicThreads[topic] = thread
	}
	return thread
}

// RecentHistory returns at most n of the most recent turns
func (s *Session) RecentHistory(n int) []ConversationTurn {
	return LastTurns(s.History, n)
}

// LastTurns returns at most n of the most recent turns of history
func LastTurns(history []ConversationTurn, n int) []ConversationTurn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]ConversationTurn(nil), s.History...)
	c.TopicThreads = make(map[string]*TopicThread, len(s.TopicThreads))
	for k, t := range s.TopicThreads {
		c.TopicThreads[k] = &TopicThread{
			History:            append([]ConversationTurn(nil), t.History...),
			UnderstandingLevel: t.UnderstandingLevel,
		}
	}
	return &c
}
