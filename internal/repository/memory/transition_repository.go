package memory

import (
	"context"
	"sort"
	"sync"

	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/store"

	"github.com/google/uuid"
)

// TransitionRepository is an append-only in-process audit log.
// It understands ByUserID, BySessionID, OrderBy on created_at and Pagination; other specs are ignored.
type TransitionRepository struct {
	mu      sync.RWMutex
	records []store.ModeTransition
}

var _ contract.ModeTransitionRepository = (*TransitionRepository)(nil)

func NewTransitionRepository() *TransitionRepository {
	return &TransitionRepository{}
}

func (r *TransitionRepository) Create(ctx context.Context, transition *store.ModeTransition) error {
	if transition.ID == "" {
		transition.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *transition)
	return nil
}

func (r *TransitionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*store.ModeTransition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*store.ModeTransition
	for i := range r.records {
		t := r.records[i]
		if matches(&t, specs) {
			out = append(out, &t)
		}
	}

	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OrderBy:
			if s.Desc {
				sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
			} else {
				sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
			}
		case specification.Pagination:
			out = paginate(out, s.Limit, s.Offset)
		}
	}
	return out, nil
}

func (r *TransitionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for i := range r.records {
		if matches(&r.records[i], specs) {
			n++
		}
	}
	return n, nil
}

func matches(t *store.ModeTransition, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByUserID:
			if t.UserID != s.UserID {
				return false
			}
		case specification.BySessionID:
			if t.SessionID != s.SessionID {
				return false
			}
		}
	}
	return true
}

func paginate(in []*store.ModeTransition, limit, offset int) []*store.ModeTransition {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
