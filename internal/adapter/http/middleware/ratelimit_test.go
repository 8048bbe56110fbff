package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRateLimiter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(h http.Handler, remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/file", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("limits per client", func(t *testing.T) {
		h := NewRateLimiter(10, zap.NewNop()).Handler(ok)

		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1"))
		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.2"))
	})

	t.Run("same ip on different ports", func(t *testing.T) {
		l := NewRateLimiter(10, zap.NewNop())
		h := l.Handler(ok)

		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:50001"))
		for _, port := range []string{"50002", "50003", "50004", "50005"} {
			assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:"+port))
		}
		assert.Equal(t, http.StatusOK, serve(h, "[::1]:50001"))
		assert.Len(t, l.clients, 2)
	})

	t.Run("disabled", func(t *testing.T) {
		h := NewRateLimiter(0, zap.NewNop()).Handler(ok)
		for i := 0; i < 20; i++ {
			assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1"))
		}
	})
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(10, zap.NewNop())
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
	assert.Len(t, l.clients, 2)

	now = now.Add(clientIdleTTL / 2)
	assert.True(t, l.allow("10.0.0.2"))

	now = now.Add(clientIdleTTL/2 + time.Minute)
	assert.True(t, l.allow("10.0.0.3"))
	assert.Len(t, l.clients, 2)
	assert.NotContains(t, l.clients, "10.0.0.1")
	assert.Contains(t, l.clients, "10.0.0.2")
}
