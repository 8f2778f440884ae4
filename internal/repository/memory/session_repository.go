package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps sessions in process. Expired sessions are moved to a tombstone cache.
type SessionRepository struct {
	mu       sync.Mutex
	live     *cache.Cache
	expired  *cache.Cache
	sequence int64
}

var _ contract.TutorSessionRepository = (*SessionRepository)(nil)

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		live:    cache.New(cache.NoExpiration, 0),
		expired: cache.New(24*time.Hour, 1*time.Hour),
	}
}

func (r *SessionRepository) FindBySessionID(ctx context.Context, sessionID string) (*store.Session, error) {
	if x, found := r.live.Get(sessionID); found {
		return x.(*store.Session).Clone(), nil
	}
	return nil, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *store.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := session.Clone()
	stored.Version = 1
	if err := r.live.Add(session.SessionID, stored, cache.NoExpiration); err != nil {
		return apperror.ErrVersionConflict
	}
	session.Version = 1
	return nil
}

func (r *SessionRepository) UpdateIfVersion(ctx context.Context, session *store.Session, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.live.Get(session.SessionID)
	if !found || x.(*store.Session).Version != expectedVersion {
		return apperror.ErrVersionConflict
	}

	stored := session.Clone()
	stored.Version = expectedVersion + 1
	r.live.Set(session.SessionID, stored, cache.NoExpiration)
	session.Version = stored.Version
	return nil
}

func (r *SessionRepository) Expire(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.live.Get(sessionID); found {
		r.sequence++
		r.expired.Set(tombstoneKey(sessionID, r.sequence), x, cache.DefaultExpiration)
		r.live.Delete(sessionID)
	}
	return nil
}

// ExpiredCount reports how many soft-deleted copies of a session are retained
func (r *SessionRepository) ExpiredCount(sessionID string) int {
	n := 0
	for _, item := range r.expired.Items() {
		if s, ok := item.Object.(*store.Session); ok && s.SessionID == sessionID {
			n++
		}
	}
	return n
}

func tombstoneKey(sessionID string, seq int64) string {
	return fmt.Sprintf("%s#%d", sessionID, seq)
}
