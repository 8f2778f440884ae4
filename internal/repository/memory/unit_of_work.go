package memory

import (
	"context"
	"fmt"
	"sync"

	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/store"

	"github.com/google/uuid"
)

// Store groups the in-process repositories shared by every unit of work
type Store struct {
	Sessions    *SessionRepository
	Profiles    *ProfileRepository
	Transitions *TransitionRepository
	Chunks      *ContentChunkRepository

	commitMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		Sessions:    NewSessionRepository(),
		Profiles:    NewProfileRepository(),
		Transitions: NewTransitionRepository(),
		Chunks:      NewContentChunkRepository(),
	}
}

type repositoryFactory struct {
	store *Store
}

// NewRepositoryFactory returns a factory whose units of work share s
func NewRepositoryFactory(s *Store) unitofwork.RepositoryFactory {
	return &repositoryFactory{store: s}
}

func (f *repositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: f.store}
}

// unitOfWork stages profile and transition writes between Begin and Commit.
// Session writes are conditional on version and apply immediately.
type unitOfWork struct {
	store   *Store
	inTx    bool
	pending []func(ctx context.Context) error
	ctx     context.Context
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.inTx = true
	u.ctx = ctx
	u.pending = nil
	return nil
}

func (u *unitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.store.commitMu.Lock()
	defer u.store.commitMu.Unlock()

	for _, op := range u.pending {
		if err := op(u.ctx); err != nil {
			u.reset()
			return err
		}
	}
	u.reset()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.reset()
	return nil
}

func (u *unitOfWork) reset() {
	u.inTx = false
	u.pending = nil
	u.ctx = nil
}

func (u *unitOfWork) stage(op func(ctx context.Context) error) {
	u.pending = append(u.pending, op)
}

func (u *unitOfWork) TutorSessionRepository() contract.TutorSessionRepository {
	return u.store.Sessions
}

func (u *unitOfWork) UserProfileRepository() contract.UserProfileRepository {
	return &stagedProfiles{uow: u}
}

func (u *unitOfWork) ModeTransitionRepository() contract.ModeTransitionRepository {
	return &stagedTransitions{uow: u}
}

func (u *unitOfWork) ContentChunkRepository() contract.ContentChunkRepository {
	return u.store.Chunks
}

type stagedProfiles struct {
	uow *unitOfWork
}

func (s *stagedProfiles) FindByUserID(ctx context.Context, userID string) (*store.UserProfile, error) {
	return s.uow.store.Profiles.FindByUserID(ctx, userID)
}

func (s *stagedProfiles) Upsert(ctx context.Context, profile *store.UserProfile) error {
	if !s.uow.inTx {
		return s.uow.store.Profiles.Upsert(ctx, profile)
	}
	p := *profile
	s.uow.stage(func(ctx context.Context) error { return s.uow.store.Profiles.Upsert(ctx, &p) })
	return nil
}

type stagedTransitions struct {
	uow *unitOfWork
}

func (s *stagedTransitions) Create(ctx context.Context, transition *store.ModeTransition) error {
	if !s.uow.inTx {
		return s.uow.store.Transitions.Create(ctx, transition)
	}
	if transition.ID == "" {
		transition.ID = uuid.NewString()
	}
	t := *transition
	s.uow.stage(func(ctx context.Context) error { return s.uow.store.Transitions.Create(ctx, &t) })
	return nil
}

func (s *stagedTransitions) FindAll(ctx context.Context, specs ...specification.Specification) ([]*store.ModeTransition, error) {
	return s.uow.store.Transitions.FindAll(ctx, specs...)
}

func (s *stagedTransitions) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return s.uow.store.Transitions.Count(ctx, specs...)
}
