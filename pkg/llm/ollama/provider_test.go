package ollama

import (
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/llm"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaChatReportsUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Len(t, req.Messages, 2)

		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message:         ollamaMessage{Role: "assistant", Content: "hello"},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       3,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Content)
	assert.Equal(t, 12, out.Usage.PromptTokens)
	assert.Equal(t, 3, out.Usage.CompletionTokens)
}

func TestOllamaChatClassifiesFailures(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTransient bool
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, true},
		{"rate limited", http.StatusTooManyRequests, ``, true},
		{"bad request", http.StatusBadRequest, `{"error":"model not found"}`, false},
		{"malformed body", http.StatusOK, `not-json`, false},
		{"empty object", http.StatusOK, `{}`, false},
		{"not done", http.StatusOK, `{"message":{"role":"assistant","content":"partial"},"done":false}`, false},
		{"empty content", http.StatusOK, `{"message":{"role":"assistant","content":""},"done":true}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOllamaProvider(srv.URL, "llama3").Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, apperror.IsTransient(err))
			assert.Equal(t, !tt.wantTransient, apperror.IsPersistent(err))
		})
	}
}

func TestOllamaChatRejectsIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	out, err := NewOllamaProvider(srv.URL, "llama3").Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Nil(t, out)

	var perr *apperror.PersistentBackendError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, apperror.CauseMalformed, perr.Cause)
}
