package dto

import (
	"time"

	"ai-tutor-be/pkg/store"
)

type AskRequest struct {
	UserID              string                `json:"user_id" validate:"required"`
	SessionID           string                `json:"session_id" validate:"required,max=128"`
	Query               string                `json:"query" validate:"required,max=8000"`
	Mode                string                `json:"mode" validate:"required,oneof=tutor interviewer mentor"`
	Language            string                `json:"language" validate:"required,max=16"`
	ConversationHistory []ConversationTurnDTO `json:"conversation_history,omitempty" validate:"omitempty,max=50,dive"`
}

type ConversationTurnDTO struct {
	Role      string    `json:"role" validate:"required,oneof=user assistant system"`
	Content   string    `json:"content" validate:"required"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

type SwitchModeRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required,max=128"`
	Mode      string `json:"mode" validate:"required,oneof=tutor interviewer mentor"`
	Reason    string `json:"reason" validate:"max=500"`
}

// TransitionFilter narrows a transition listing; zero values mean no filter
type TransitionFilter struct {
	SessionID string `query:"session_id" validate:"max=128"`
	Limit     int    `query:"limit" validate:"min=0,max=200"`
	Offset    int    `query:"offset" validate:"min=0"`
}

type SwitchModeResponse struct {
	TransitionID string     `json:"transition_id"`
	FromMode     store.Mode `json:"from_mode"`
	ToMode       store.Mode `json:"to_mode"`
	Message      string     `json:"message"`
}

type SessionResponse struct {
	SessionID    string                        `json:"session_id"`
	UserID       string                        `json:"user_id"`
	Mode         store.Mode                    `json:"mode"`
	History      []store.ConversationTurn      `json:"history"`
	TopicThreads map[string]*store.TopicThread `json:"topic_threads"`
	LastUpdated  time.Time                     `json:"last_updated"`
}

type TransitionResponse struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	FromMode  store.Mode `json:"from_mode"`
	ToMode    store.Mode `json:"to_mode"`
	Reason    string     `json:"reason"`
	Timestamp time.Time  `json:"timestamp"`
}

// ToQuery converts a validated request into the immutable query
func (r *AskRequest) ToQuery() *store.Query {
	history := make([]store.ConversationTurn, 0, len(r.ConversationHistory))
	for _, t := range r.ConversationHistory {
		history = append(history, store.ConversationTurn{
			Role:      store.Role(t.Role),
			Content:   t.Content,
			Timestamp: t.Timestamp,
		})
	}
	return &store.Query{
		UserID:              r.UserID,
		SessionID:           r.SessionID,
		Text:                r.Query,
		Mode:                store.Mode(r.Mode),
		Language:            r.Language,
		ConversationHistory: history,
	}
}

func NewSessionResponse(s *store.Session) *SessionResponse {
	return &SessionResponse{
		SessionID:    s.SessionID,
		UserID:       s.UserID,
		Mode:         s.Mode,
		History:      s.History,
		TopicThreads: s.TopicThreads,
		LastUpdated:  s.LastUpdated,
	}
}

func NewTransitionResponses(ts []*store.ModeTransition) []*TransitionResponse {
	res := make([]*TransitionResponse, 0, len(ts))
	for _, t := range ts {
		res = append(res, &TransitionResponse{
			ID:        t.ID,
			SessionID: t.SessionID,
			FromMode:  t.FromMode,
			ToMode:    t.ToMode,
			Reason:    t.Reason,
			Timestamp: t.Timestamp,
		})
	}
	return res
}
