package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/database"
	"ai-tutor-be/pkg/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	require.NoError(t, err, "failed to connect to DB")
	require.NoError(t, database.EnableExtensions(db))
	require.NoError(t, db.AutoMigrate(
		&model.TutorSession{},
		&model.UserProfile{},
		&model.ModeTransition{},
		&model.ContentChunk{},
	))
	return db
}

func TestGormRepositories(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	factory := unitofwork.NewRepositoryFactory(db)
	userID := "it-user-" + uuid.NewString()

	t.Run("Session create and conditional update", func(t *testing.T) {
		repo := factory.NewUnitOfWork(ctx).TutorSessionRepository()
		sessionID := "it-session-" + uuid.NewString()

		s := store.NewSession(sessionID, userID, store.ModeTutor, time.Now())
		require.NoError(t, repo.Create(ctx, s))
		assert.Equal(t, int64(1), s.Version)

		dup := store.NewSession(sessionID, userID, store.ModeTutor, time.Now())
		assert.ErrorIs(t, repo.Create(ctx, dup), apperror.ErrVersionConflict)

		a, err := repo.FindBySessionID(ctx, sessionID)
		require.NoError(t, err)
		require.NotNil(t, a)
		b, err := repo.FindBySessionID(ctx, sessionID)
		require.NoError(t, err)

		a.AppendTurns(store.DefaultHistoryCap, store.ConversationTurn{Role: store.RoleUser, Content: "hello", Timestamp: time.Now()})
		require.NoError(t, repo.UpdateIfVersion(ctx, a, 1))
		assert.Equal(t, int64(2), a.Version)

		b.Mode = store.ModeMentor
		assert.ErrorIs(t, repo.UpdateIfVersion(ctx, b, 1), apperror.ErrVersionConflict)

		stored, err := repo.FindBySessionID(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, store.ModeTutor, stored.Mode)
		require.Len(t, stored.History, 1)
		assert.Equal(t, "hello", stored.History[0].Content)
	})

	t.Run("Expired session id can be reused", func(t *testing.T) {
		repo := factory.NewUnitOfWork(ctx).TutorSessionRepository()
		sessionID := "it-session-" + uuid.NewString()

		require.NoError(t, repo.Create(ctx, store.NewSession(sessionID, userID, store.ModeTutor, time.Now())))
		require.NoError(t, repo.Expire(ctx, sessionID))

		gone, err := repo.FindBySessionID(ctx, sessionID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		fresh := store.NewSession(sessionID, userID, store.ModeInterviewer, time.Now())
		require.NoError(t, repo.Create(ctx, fresh))
		assert.Equal(t, int64(1), fresh.Version)
	})

	t.Run("Profile upsert and transition commit together", func(t *testing.T) {
		uow := factory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		profile := store.DefaultProfile(userID)
		profile.LastMode = store.ModeInterviewer
		require.NoError(t, uow.UserProfileRepository().Upsert(ctx, profile))
		require.NoError(t, uow.ModeTransitionRepository().Create(ctx, &store.ModeTransition{
			UserID:    userID,
			SessionID: "it-session",
			FromMode:  store.ModeTutor,
			ToMode:    store.ModeInterviewer,
			Timestamp: time.Now(),
			Reason:    "integration",
		}))
		require.NoError(t, uow.Commit())

		reader := factory.NewUnitOfWork(ctx)
		stored, err := reader.UserProfileRepository().FindByUserID(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, store.ModeInterviewer, stored.LastMode)

		transitions, err := reader.ModeTransitionRepository().FindAll(ctx,
			specification.ByUserID{UserID: userID},
			specification.OrderBy{Field: "created_at"},
		)
		require.NoError(t, err)
		require.Len(t, transitions, 1)
		assert.Equal(t, "integration", transitions[0].Reason)
		assert.NotEmpty(t, transitions[0].ID)
	})

	t.Run("Rolled back transition is not stored", func(t *testing.T) {
		other := "it-user-" + uuid.NewString()
		uow := factory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.ModeTransitionRepository().Create(ctx, &store.ModeTransition{
			UserID:    other,
			SessionID: "it-session",
			FromMode:  store.ModeTutor,
			ToMode:    store.ModeMentor,
			Timestamp: time.Now(),
		}))
		require.NoError(t, uow.Rollback())

		count, err := factory.NewUnitOfWork(ctx).ModeTransitionRepository().Count(ctx, specification.ByUserID{UserID: other})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Vector search is scoped to the owner", func(t *testing.T) {
		near := make([]float32, 768)
		far := make([]float32, 768)
		near[0], far[1] = 1, 1

		chunks := []*model.ContentChunk{
			{UserId: userID, DocumentId: "doc-1", Document: "recursion notes", Topic: "recursion", EmbeddingValue: pgvector.NewVector(near)},
			{UserId: userID, DocumentId: "doc-2", Document: "graph notes", Topic: "graphs", EmbeddingValue: pgvector.NewVector(far)},
			{UserId: "someone-else", DocumentId: "doc-3", Document: "foreign notes", EmbeddingValue: pgvector.NewVector(near)},
		}
		require.NoError(t, db.Create(&chunks).Error)
		t.Cleanup(func() {
			db.Unscoped().Where("user_id IN ?", []string{userID, "someone-else"}).Delete(&model.ContentChunk{})
		})

		sources, err := factory.NewUnitOfWork(ctx).ContentChunkRepository().SearchSimilarWithScore(ctx, near, 5, userID, 0.5)
		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "doc-1", sources[0].DocumentID)
		assert.Equal(t, "recursion", sources[0].Metadata.Topic)
		assert.InDelta(t, 1.0, sources[0].RelevanceScore, 1e-6)
	})
}
