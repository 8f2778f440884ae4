package memory

import (
	"context"
	"testing"
	"time"

	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositoryConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	s := store.NewSession("s1", "u1", store.ModeTutor, time.Now())
	require.NoError(t, repo.Create(ctx, s))

	a, _ := repo.FindBySessionID(ctx, "s1")
	b, _ := repo.FindBySessionID(ctx, "s1")

	assert.Equal(t, int64(1), s.Version)
	assert.Equal(t, int64(1), a.Version)

	a.Mode = store.ModeMentor
	require.NoError(t, repo.UpdateIfVersion(ctx, a, 1))
	assert.Equal(t, int64(2), a.Version)

	b.Mode = store.ModeInterviewer
	assert.ErrorIs(t, repo.UpdateIfVersion(ctx, b, 1), apperror.ErrVersionConflict)

	got, _ := repo.FindBySessionID(ctx, "s1")
	assert.Equal(t, store.ModeMentor, got.Mode)
}

func TestSessionRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	require.NoError(t, repo.Create(ctx, store.NewSession("s1", "u1", store.ModeTutor, time.Now())))

	got, _ := repo.FindBySessionID(ctx, "s1")
	got.AppendTurns(0, store.ConversationTurn{Role: store.RoleUser, Content: "mutated"})

	again, _ := repo.FindBySessionID(ctx, "s1")
	assert.Empty(t, again.History)
}

func TestSessionRepositoryExpireKeepsTombstone(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	require.NoError(t, repo.Create(ctx, store.NewSession("s1", "u1", store.ModeTutor, time.Now())))

	require.NoError(t, repo.Expire(ctx, "s1"))
	got, err := repo.FindBySessionID(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, repo.ExpiredCount("s1"))

	// the id can be reused after expiry
	assert.NoError(t, repo.Create(ctx, store.NewSession("s1", "u1", store.ModeTutor, time.Now())))
}

func TestTransitionRepositoryFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewTransitionRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, u := range []string{"u1", "u2", "u1"} {
		require.NoError(t, repo.Create(ctx, &store.ModeTransition{
			UserID: u, SessionID: "s", FromMode: store.ModeTutor, ToMode: store.ModeMentor,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := repo.FindAll(ctx, specification.ByUserID{UserID: "u1"}, specification.OrderBy{Field: "created_at", Desc: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Timestamp.After(all[1].Timestamp))
	assert.NotEmpty(t, all[0].ID)

	n, _ := repo.Count(ctx, specification.ByUserID{UserID: "u2"})
	assert.Equal(t, int64(1), n)
}

func TestUnitOfWorkRollbackDiscardsStagedWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	uow := NewRepositoryFactory(s).NewUnitOfWork(ctx)

	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.ModeTransitionRepository().Create(ctx, &store.ModeTransition{UserID: "u1"}))
	require.NoError(t, uow.UserProfileRepository().Upsert(ctx, store.DefaultProfile("u1")))
	require.NoError(t, uow.Rollback())

	n, _ := s.Transitions.Count(ctx)
	assert.Zero(t, n)
	p, _ := s.Profiles.FindByUserID(ctx, "u1")
	assert.Nil(t, p)

	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.ModeTransitionRepository().Create(ctx, &store.ModeTransition{UserID: "u1"}))
	require.NoError(t, uow.Commit())

	n, _ = s.Transitions.Count(ctx)
	assert.Equal(t, int64(1), n)
}

func TestContentChunkRepositoryCosine(t *testing.T) {
	ctx := context.Background()
	repo := NewContentChunkRepository()
	repo.Add("u1", store.ContentSource{DocumentID: "near"}, []float32{1, 0})
	repo.Add("u1", store.ContentSource{DocumentID: "far"}, []float32{0, 1})
	repo.Add("u2", store.ContentSource{DocumentID: "other-user"}, []float32{1, 0})

	out, err := repo.SearchSimilarWithScore(ctx, []float32{1, 0.1}, 5, "u1", 0.5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "near", out[0].DocumentID)
	assert.Greater(t, out[0].RelevanceScore, 0.9)
}
