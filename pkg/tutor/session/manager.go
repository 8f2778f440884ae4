package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"
)

const logModule = "SESSION"

type Config struct {
	IdleWindow        time.Duration
	HistoryCap        int
	MaxWriteAttempts  int
	UnderstandingStep float64
}

func DefaultConfig() Config {
	return Config{
		IdleWindow:        30 * time.Minute,
		HistoryCap:        store.DefaultHistoryCap,
		MaxWriteAttempts:  3,
		UnderstandingStep: 0.05,
	}
}

// Manager owns the session lifecycle. It is the only writer of session state.
type Manager struct {
	repo   contract.TutorSessionRepository
	cfg    Config
	logger logger.ILogger
	now    func() time.Time
}

func NewManager(repo contract.TutorSessionRepository, cfg Config, log logger.ILogger) *Manager {
	def := DefaultConfig()
	if cfg.IdleWindow <= 0 {
		cfg.IdleWindow = def.IdleWindow
	}
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = def.HistoryCap
	}
	if cfg.MaxWriteAttempts <= 0 {
		cfg.MaxWriteAttempts = def.MaxWriteAttempts
	}
	if cfg.UnderstandingStep <= 0 {
		cfg.UnderstandingStep = def.UnderstandingStep
	}
	return &Manager{repo: repo, cfg: cfg, logger: log, now: time.Now}
}

// WithClock overrides the time source
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// LoadOrCreate returns the caller's live session. When none exists, or the stored one has been
// idle past the window, it returns a fresh unsaved session (created=true) that is persisted by its
// first write.
func (m *Manager) LoadOrCreate(ctx context.Context, userID, sessionID string, defaultMode store.Mode) (*store.Session, bool, error) {
	s, err := m.live(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if s == nil {
		return store.NewSession(sessionID, userID, defaultMode, m.now()), true, nil
	}
	if s.UserID != userID {
		return nil, false, apperror.NewNotFound("session", sessionID)
	}
	return s, false, nil
}

// Get returns the caller's live session or NotFoundError
func (m *Manager) Get(ctx context.Context, userID, sessionID string) (*store.Session, error) {
	s, err := m.live(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil || s.UserID != userID {
		return nil, apperror.NewNotFound("session", sessionID)
	}
	return s, nil
}

// live loads the session and soft deletes it if it has been idle past the window
func (m *Manager) live(ctx context.Context, sessionID string) (*store.Session, error) {
	s, err := m.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return nil, nil
	}
	if s.IsExpired(m.now(), m.cfg.IdleWindow) {
		if err := m.repo.Expire(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("expire session: %w", err)
		}
		m.logger.Info(logModule, "Session expired", map[string]interface{}{
			"session_id":   sessionID,
			"last_updated": s.LastUpdated,
		})
		return nil, nil
	}
	return s, nil
}

// AppendExchange appends the user and assistant turns to the global history and the topic thread.
// The write is conditional on the session version; conflicts reload and re-apply.
func (m *Manager) AppendExchange(ctx context.Context, s *store.Session, userTurn, assistantTurn store.ConversationTurn, topic string) error {
	return m.update(ctx, s, func(next *store.Session) {
		next.AppendTurns(m.cfg.HistoryCap, userTurn, assistantTurn)

		thread := next.Thread(topic)
		thread.History = append(thread.History, userTurn, assistantTurn)
		if over := len(thread.History) - m.cfg.HistoryCap; over > 0 {
			thread.History = append([]store.ConversationTurn(nil), thread.History[over:]...)
		}
		thread.UnderstandingLevel += m.cfg.UnderstandingStep
		if thread.UnderstandingLevel > 1 {
			thread.UnderstandingLevel = 1
		}
	})
}

// SetMode persists the session's active mode
func (m *Manager) SetMode(ctx context.Context, s *store.Session, mode store.Mode) error {
	return m.update(ctx, s, func(next *store.Session) {
		next.Mode = mode
	})
}

// update applies the mutation and writes it conditionally. A session at version 0 has never
// been stored and is created instead.
func (m *Manager) update(ctx context.Context, s *store.Session, apply func(next *store.Session)) error {
	current := s
	for attempt := 1; attempt <= m.cfg.MaxWriteAttempts; attempt++ {
		next := current.Clone()
		apply(next)
		next.LastUpdated = m.now()

		var err error
		if current.Version == 0 {
			err = m.repo.Create(ctx, next)
		} else {
			err = m.repo.UpdateIfVersion(ctx, next, current.Version)
		}
		if err == nil {
			if current.Version == 0 {
				m.logger.Info(logModule, "Session started", map[string]interface{}{
					"session_id": next.SessionID,
					"user_id":    next.UserID,
					"mode":       string(next.Mode),
				})
			}
			*s = *next
			return nil
		}
		if !errors.Is(err, apperror.ErrVersionConflict) {
			return fmt.Errorf("write session: %w", err)
		}

		m.logger.Debug(logModule, "Session write conflict, reloading", map[string]interface{}{
			"session_id": s.SessionID,
			"attempt":    attempt,
		})

		reloaded, err := m.repo.FindBySessionID(ctx, s.SessionID)
		if err != nil {
			return fmt.Errorf("reload session: %w", err)
		}
		switch {
		case reloaded == nil && current.Version == 0:
			// the competing session is already gone, create again
		case reloaded == nil:
			return apperror.NewNotFound("session", s.SessionID)
		case reloaded.UserID != s.UserID:
			return apperror.NewNotFound("session", s.SessionID)
		default:
			current = reloaded
		}
	}

	m.logger.Warn(logModule, "Session write conflict persisted", map[string]interface{}{
		"session_id": s.SessionID,
		"attempts":   m.cfg.MaxWriteAttempts,
	})
	return fmt.Errorf("write session %s: %w", s.SessionID, apperror.ErrVersionConflict)
}
