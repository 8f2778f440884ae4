package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(role store.Role, content string) store.ConversationTurn {
	return store.ConversationTurn{Role: role, Content: content, Timestamp: time.Now()}
}

func newTestManager(repo *memory.SessionRepository, cfg Config) (*Manager, *time.Time) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(repo, cfg, logger.NewNopLogger()).WithClock(func() time.Time { return now })
	return m, &now
}

func TestLoadOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	m, _ := newTestManager(repo, DefaultConfig())

	s, created, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeMentor)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, store.ModeMentor, s.Mode)
	assert.Equal(t, int64(0), s.Version)

	stored, err := repo.FindBySessionID(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, stored, "a new session is not stored until its first write")

	require.NoError(t, m.AppendExchange(ctx, s, turn(store.RoleUser, "q"), turn(store.RoleAssistant, "a"), ""))
	assert.Equal(t, int64(1), s.Version)

	again, created, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, store.ModeMentor, again.Mode, "existing session keeps its mode")
	assert.Len(t, again.History, 2)
}

func TestLoadOrCreateOtherUser(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(memory.NewSessionRepository(), DefaultConfig())

	s, _, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)
	require.NoError(t, m.SetMode(ctx, s, store.ModeTutor))

	_, _, err = m.LoadOrCreate(ctx, "u2", "s1", store.ModeTutor)
	assert.True(t, apperror.IsNotFound(err))

	_, err = m.Get(ctx, "u2", "s1")
	assert.True(t, apperror.IsNotFound(err))
}

func TestGetUnknownSession(t *testing.T) {
	m, _ := newTestManager(memory.NewSessionRepository(), DefaultConfig())
	_, err := m.Get(context.Background(), "u1", "missing")
	assert.True(t, apperror.IsNotFound(err))
}

func TestConcurrentFirstWrites(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(memory.NewSessionRepository(), DefaultConfig())

	a, _, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)
	b, _, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)

	require.NoError(t, m.AppendExchange(ctx, a, turn(store.RoleUser, "first"), turn(store.RoleAssistant, "r1"), ""))
	require.NoError(t, m.AppendExchange(ctx, b, turn(store.RoleUser, "second"), turn(store.RoleAssistant, "r2"), ""))

	stored, err := m.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, stored.History, 4)
	assert.Equal(t, "first", stored.History[0].Content)
	assert.Equal(t, "second", stored.History[2].Content)
	assert.Equal(t, int64(2), stored.Version)
}

func TestConcurrentFirstWriteByOtherUser(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(memory.NewSessionRepository(), DefaultConfig())

	mine, _, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)
	theirs, _, err := m.LoadOrCreate(ctx, "u2", "s1", store.ModeTutor)
	require.NoError(t, err)

	require.NoError(t, m.SetMode(ctx, theirs, store.ModeMentor))

	err = m.AppendExchange(ctx, mine, turn(store.RoleUser, "q"), turn(store.RoleAssistant, "a"), "")
	assert.True(t, apperror.IsNotFound(err))
}

func TestIdleSessionIsReplaced(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	m, now := newTestManager(repo, DefaultConfig())

	s, _, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)
	require.NoError(t, m.AppendExchange(ctx, s, turn(store.RoleUser, "q"), turn(store.RoleAssistant, "a"), ""))

	*now = now.Add(29 * time.Minute)
	_, err = m.Get(ctx, "u1", "s1")
	require.NoError(t, err, "still inside the idle window")

	*now = now.Add(31 * time.Minute)

	_, err = m.Get(ctx, "u1", "s1")
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 1, repo.ExpiredCount("s1"))

	fresh, created, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeInterviewer)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, fresh.History)
	assert.Equal(t, store.ModeInterviewer, fresh.Mode)

	require.NoError(t, m.AppendExchange(ctx, fresh, turn(store.RoleUser, "q2"), turn(store.RoleAssistant, "a2"), ""))
	stored, err := m.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Len(t, stored.History, 2)
}

func TestAppendExchange(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	m, _ := newTestManager(repo, DefaultConfig())

	s, _, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)

	require.NoError(t, m.AppendExchange(ctx, s, turn(store.RoleUser, "what is a goroutine"), turn(store.RoleAssistant, "a light thread"), "concurrency"))

	stored, err := m.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, stored.History, 2)
	assert.Equal(t, store.RoleUser, stored.History[0].Role)
	assert.Equal(t, store.RoleAssistant, stored.History[1].Role)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, s.Version, stored.Version)

	thread := stored.TopicThreads["concurrency"]
	require.NotNil(t, thread)
	assert.Len(t, thread.History, 2)
	assert.InDelta(t, 0.05, thread.UnderstandingLevel, 1e-9)
}

func TestAppendExchangeCapsHistory(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(memory.NewSessionRepository(), DefaultConfig())

	s, _, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		require.NoError(t, m.AppendExchange(ctx, s,
			turn(store.RoleUser, fmt.Sprintf("q%d", i)),
			turn(store.RoleAssistant, fmt.Sprintf("a%d", i)), ""))
	}

	stored, err := m.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, stored.History, 50)
	assert.Equal(t, "q5", stored.History[0].Content)
	assert.Equal(t, "a29", stored.History[49].Content)
	assert.Len(t, stored.TopicThreads[store.DefaultTopic].History, 50)
	assert.InDelta(t, 1.0, stored.TopicThreads[store.DefaultTopic].UnderstandingLevel, 1e-9)
}

func TestAppendExchangeReloadsOnConflict(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	m, _ := newTestManager(repo, DefaultConfig())

	s, _, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)
	require.NoError(t, m.SetMode(ctx, s, store.ModeTutor))

	// a concurrent writer lands first using its own copy
	other, err := m.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	require.NoError(t, m.AppendExchange(ctx, other, turn(store.RoleUser, "first"), turn(store.RoleAssistant, "r1"), ""))

	require.NoError(t, m.AppendExchange(ctx, s, turn(store.RoleUser, "second"), turn(store.RoleAssistant, "r2"), ""))

	stored, err := m.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, stored.History, 4)
	assert.Equal(t, "first", stored.History[0].Content)
	assert.Equal(t, "second", stored.History[2].Content)
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(memory.NewSessionRepository(), Config{MaxWriteAttempts: 50})

	s, _, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)
	require.NoError(t, m.SetMode(ctx, s, store.ModeTutor))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Get(ctx, "u1", "s1")
			if !assert.NoError(t, err) {
				return
			}
			assert.NoError(t, m.AppendExchange(ctx, s,
				turn(store.RoleUser, fmt.Sprintf("q%d", i)),
				turn(store.RoleAssistant, fmt.Sprintf("a%d", i)), ""))
		}(i)
	}
	wg.Wait()

	stored, err := m.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Len(t, stored.History, 16)
	for i := 0; i < len(stored.History); i += 2 {
		assert.Equal(t, store.RoleUser, stored.History[i].Role)
		assert.Equal(t, store.RoleAssistant, stored.History[i+1].Role)
	}
}

func TestSetMode(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(memory.NewSessionRepository(), DefaultConfig())

	s, _, err := m.LoadOrCreate(ctx, "u1", "s1", store.ModeTutor)
	require.NoError(t, err)
	require.NoError(t, m.SetMode(ctx, s, store.ModeInterviewer))

	stored, err := m.Get(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, store.ModeInterviewer, stored.Mode)
}
