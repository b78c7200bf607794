package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryLimiterAllowsWithinLimit(t *testing.T) {
	limiter := NewMemory(3, time.Minute)
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(context.Background(), "1.2.3.4:forms")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, retryAfter, err := limiter.Allow(context.Background(), "1.2.3.4:forms")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewMemory(1, time.Minute)
	defer limiter.Close()

	allowed, _, _ := limiter.Allow(context.Background(), "1.2.3.4:forms")
	assert.True(t, allowed)
	allowed, _, _ = limiter.Allow(context.Background(), "1.2.3.4:forms")
	assert.False(t, allowed)

	allowed, _, _ = limiter.Allow(context.Background(), "5.6.7.8:forms")
	assert.True(t, allowed)
	allowed, _, _ = limiter.Allow(context.Background(), "1.2.3.4:auth")
	assert.True(t, allowed)
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	limiter := NewMemory(1, 20*time.Millisecond)
	defer limiter.Close()

	allowed, _, _ := limiter.Allow(context.Background(), "key")
	assert.True(t, allowed)
	allowed, _, _ = limiter.Allow(context.Background(), "key")
	assert.False(t, allowed)

	time.Sleep(30 * time.Millisecond)

	allowed, _, _ = limiter.Allow(context.Background(), "key")
	assert.True(t, allowed, "expired window should reset the counter")
}

func TestRedisLimiter(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	limiter := NewRedis(client, 2, time.Minute)

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(context.Background(), "1.2.3.4:responses")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, retryAfter, err := limiter.Allow(context.Background(), "1.2.3.4:responses")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	// Advancing past the window frees the key.
	server.FastForward(2 * time.Minute)
	allowed, _, err = limiter.Allow(context.Background(), "1.2.3.4:responses")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	limiter := NewMemory(1, time.Minute)
	defer limiter.Close()

	handler := Middleware(limiter, "forms", zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/forms", nil)
	req.RemoteAddr = "1.2.3.4:52000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMiddlewarePrefersForwardedFor(t *testing.T) {
	limiter := NewMemory(1, time.Minute)
	defer limiter.Close()

	handler := Middleware(limiter, "forms", zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	first := httptest.NewRequest(http.MethodGet, "/forms", nil)
	first.RemoteAddr = "10.0.0.1:1000"
	first.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	second := httptest.NewRequest(http.MethodGet, "/forms", nil)
	second.RemoteAddr = "10.0.0.1:1000"
	second.Header.Set("X-Forwarded-For", "203.0.113.10, 10.0.0.1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Different forwarded client, same proxy: not throttled together.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code)
}
