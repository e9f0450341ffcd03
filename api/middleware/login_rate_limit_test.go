package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLimiterStore struct {
	counts map[string]int64
}

func newFakeLimiterStore() *fakeLimiterStore {
	return &fakeLimiterStore{counts: map[string]int64{}}
}

func (f *fakeLimiterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeLimiterStore) RateLimitKey(scope string) string {
	return "ss:rl:" + scope
}

func loginRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:5000"
	return req
}

func TestLoginRateLimitBlocksAfterIPLimit(t *testing.T) {
	store := newFakeLimiterStore()
	policy := NewLoginRateLimitPolicy("login", time.Minute, 2, 0)
	handler := LoginRateLimit(policy, store, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest(`{}`))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{}`))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLoginRateLimitCountsPerEmail(t *testing.T) {
	store := newFakeLimiterStore()
	policy := NewLoginRateLimitPolicy("login", time.Minute, 0, 1)
	handler := LoginRateLimit(policy, store, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{"email":"asha@example.com"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{"email":"ASHA@example.com "}`))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "emails are normalized before counting")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{"email":"other@example.com"}`))
	assert.Equal(t, http.StatusOK, rec.Code, "a different email has its own counter")
}

func TestLoginRateLimitPreservesBodyForHandler(t *testing.T) {
	store := newFakeLimiterStore()
	policy := NewLoginRateLimitPolicy("login", time.Minute, 0, 5)

	var gotBody string
	handler := LoginRateLimit(policy, store, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
	}))

	body := `{"email":"asha@example.com","password":"secret"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(body))
	assert.Equal(t, body, gotBody)
}

func TestLoginRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler := LoginRateLimit(LoginRateLimitPolicy{}, newFakeLimiterStore(), quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{}`))
	assert.Equal(t, http.StatusOK, rec.Code)
}
