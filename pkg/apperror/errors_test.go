package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status        int
		wantTransient bool
		wantCause     Cause
	}{
		{http.StatusInternalServerError, true, ""},
		{http.StatusBadGateway, true, ""},
		{http.StatusTooManyRequests, true, ""},
		{http.StatusUnauthorized, false, CauseAuth},
		{http.StatusForbidden, false, CauseAuth},
		{http.StatusPaymentRequired, false, CauseQuota},
		{http.StatusBadRequest, false, CauseBadInput},
		{http.StatusNotFound, false, CauseBadInput},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := FromStatus("ollama", tt.status, errors.New("boom"))
			assert.Equal(t, tt.wantTransient, IsTransient(err))
			assert.Equal(t, !tt.wantTransient, IsPersistent(err))
			if !tt.wantTransient {
				var p *PersistentBackendError
				assert.True(t, errors.As(err, &p))
				assert.Equal(t, tt.wantCause, p.Cause)
			}
		})
	}
}

func TestFromTransport(t *testing.T) {
	assert.True(t, IsTransient(FromTransport("ollama", context.DeadlineExceeded)))
	assert.ErrorIs(t, FromTransport("ollama", context.Canceled), context.Canceled)
	assert.NoError(t, FromTransport("ollama", nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewValidation("query", "required")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("load: %w", NewNotFound("session", "s1"))))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(&TransientBackendError{Backend: "x", Err: errors.New("e")}))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(Malformed("x", errors.New("bad json"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("other")))
}

func TestPublicMessageHidesBackendDetail(t *testing.T) {
	err := FromStatus("huggingface", http.StatusUnauthorized, errors.New("token sk-secret rejected"))
	msg := PublicMessage(err)
	assert.NotContains(t, msg, "sk-secret")
	assert.Contains(t, msg, string(CauseAuth))
}
