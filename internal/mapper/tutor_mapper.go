package mapper

import (
	"ai-tutor-be/internal/model"
	"ai-tutor-be/pkg/store"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TutorMapper struct{}

func NewTutorMapper() *TutorMapper {
	return &TutorMapper{}
}

func (m *TutorMapper) SessionToModel(s *store.Session) *model.TutorSession {
	if s == nil {
		return nil
	}
	history := s.History
	if history == nil {
		history = []store.ConversationTurn{}
	}
	threads := s.TopicThreads
	if threads == nil {
		threads = map[string]*store.TopicThread{}
	}
	return &model.TutorSession{
		SessionId:    s.SessionID,
		UserId:       s.UserID,
		Mode:         string(s.Mode),
		History:      datatypes.NewJSONType(history),
		TopicThreads: datatypes.NewJSONType(threads),
		Version:      s.Version,
		LastUpdated:  s.LastUpdated,
	}
}

func (m *TutorMapper) SessionToStore(e *model.TutorSession) *store.Session {
	if e == nil {
		return nil
	}
	history := e.History.Data()
	if history == nil {
		history = []store.ConversationTurn{}
	}
	threads := e.TopicThreads.Data()
	if threads == nil {
		threads = map[string]*store.TopicThread{}
	}
	return &store.Session{
		SessionID:    e.SessionId,
		UserID:       e.UserId,
		Mode:         store.Mode(e.Mode),
		TopicThreads: threads,
		History:      history,
		LastUpdated:  e.LastUpdated,
		Version:      e.Version,
	}
}

func (m *TutorMapper) ProfileToModel(p *store.UserProfile) *model.UserProfile {
	if p == nil {
		return nil
	}
	return &model.UserProfile{
		UserId:           p.UserID,
		DisplayName:      p.DisplayName,
		SkillLevel:       p.SkillLevel,
		ExplanationStyle: p.ExplanationStyle,
		LastMode:         string(p.LastMode),
	}
}

func (m *TutorMapper) ProfileToStore(e *model.UserProfile) *store.UserProfile {
	if e == nil {
		return nil
	}
	return &store.UserProfile{
		UserID:           e.UserId,
		DisplayName:      e.DisplayName,
		SkillLevel:       e.SkillLevel,
		ExplanationStyle: e.ExplanationStyle,
		LastMode:         store.Mode(e.LastMode),
	}
}

func (m *TutorMapper) TransitionToModel(t *store.ModeTransition) *model.ModeTransition {
	if t == nil {
		return nil
	}
	id, err := uuid.Parse(t.ID)
	if err != nil {
		id = uuid.New()
	}
	return &model.ModeTransition{
		Id:        id,
		UserId:    t.UserID,
		SessionId: t.SessionID,
		FromMode:  string(t.FromMode),
		ToMode:    string(t.ToMode),
		Reason:    t.Reason,
		CreatedAt: t.Timestamp,
	}
}

func (m *TutorMapper) TransitionToStore(e *model.ModeTransition) *store.ModeTransition {
	if e == nil {
		return nil
	}
	return &store.ModeTransition{
		ID:        e.Id.String(),
		UserID:    e.UserId,
		SessionID: e.SessionId,
		FromMode:  store.Mode(e.FromMode),
		ToMode:    store.Mode(e.ToMode),
		Timestamp: e.CreatedAt,
		Reason:    e.Reason,
	}
}

func (m *TutorMapper) TransitionsToStore(es []*model.ModeTransition) []*store.ModeTransition {
	out := make([]*store.ModeTransition, len(es))
	for i, e := range es {
		out[i] = m.TransitionToStore(e)
	}
	return out
}

// ChunkToSource maps a scored chunk row to a ranked source
func (m *TutorMapper) ChunkToSource(e *model.ContentChunk, similarity float64) store.ContentSource {
	return store.ContentSource{
		DocumentID:     e.DocumentId,
		ChunkID:        e.Id.String(),
		Text:           e.Document,
		RelevanceScore: similarity,
		Metadata: store.SourceMetadata{
			Topic:   e.Topic,
			Page:    e.Page,
			Section: e.Section,
		},
	}
}
