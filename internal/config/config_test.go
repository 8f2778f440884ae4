package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 20*time.Second, cfg.Ai.Timeout)
	assert.Equal(t, 2, cfg.Ai.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.Tutor.RetrievalTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Tutor.CacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.Tutor.SessionIdle)
	assert.Equal(t, 50, cfg.Tutor.SessionHistoryCap)
	assert.Equal(t, 0.5, cfg.Tutor.Complexity.Threshold)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_TIMEOUT_SECONDS", "5")
	t.Setenv("CACHE_ASYNC", "false")
	t.Setenv("COMPLEXITY_THRESHOLD", "0.7")
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.Ai.Timeout)
	assert.False(t, cfg.Tutor.CacheAsync)
	assert.Equal(t, 0.7, cfg.Tutor.Complexity.Threshold)
	assert.Equal(t, 10, cfg.Tutor.RetrievalTopK, "unparseable values fall back")
}
