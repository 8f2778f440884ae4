package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendTurnsKeepsMostRecent(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", "u1", ModeTutor, now)

	for i := 0; i < 60; i++ {
		s.AppendTurns(DefaultHistoryCap, ConversationTurn{
			Role:      RoleUser,
			Content:   fmt.Sprintf("turn-%d", i),
			Timestamp: now.Add(time.Duration(i) * time.Second),
		})
	}

	require.Len(t, s.History, DefaultHistoryCap)
	assert.Equal(t, "turn-10", s.History[0].Content)
	assert.Equal(t, "turn-59", s.History[DefaultHistoryCap-1].Content)
}

func TestAppendTurnsPairAcrossCap(t *testing.T) {
	s := NewSession("s1", "u1", ModeTutor, time.Now())
	for i := 0; i < 26; i++ {
		s.AppendTurns(DefaultHistoryCap,
			ConversationTurn{Role: RoleUser, Content: fmt.Sprintf("q%d", i)},
			ConversationTurn{Role: RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		)
	}

	require.Len(t, s.History, 50)
	assert.Equal(t, "q1", s.History[0].Content)
	assert.Equal(t, "a25", s.History[49].Content)
}

func TestIsExpired(t *testing.T) {
	now := time.Now()
	s := NewSession("s1", "u1", ModeTutor, now.Add(-31*time.Minute))

	assert.True(t, s.IsExpired(now, 30*time.Minute))
	assert.False(t, s.IsExpired(now, time.Hour))
	assert.False(t, s.IsExpired(now, 0))
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSession("s1", "u1", ModeTutor, time.Now())
	s.Thread("recursion").History = append(s.Thread("recursion").History, ConversationTurn{Content: "x"})

	c := s.Clone()
	c.Thread("recursion").History = append(c.Thread("recursion").History, ConversationTurn{Content: "y"})
	c.AppendTurns(50, ConversationTurn{Content: "z"})

	assert.Len(t, s.Thread("recursion").History, 1)
	assert.Empty(t, s.History)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"tutor", ModeTutor, false},
		{" Interviewer ", ModeInterviewer, false},
		{"MENTOR", ModeMentor, false},
		{"coach", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCacheEntryExpired(t *testing.T) {
	now := time.Now()
	e := &CacheEntry{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, e.Expired(now))
	assert.True(t, e.Expired(now.Add(time.Minute)))
}
