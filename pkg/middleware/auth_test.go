package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	sm := NewSessionManager("test-secret", time.Hour)

	token, err := sm.Issue("user-123")
	require.NoError(t, err)

	userID, err := sm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestVerifyRejectsForgedAndExpired(t *testing.T) {
	sm := NewSessionManager("test-secret", time.Hour)

	token, err := sm.Issue("user-123")
	require.NoError(t, err)

	_, err = NewSessionManager("other-secret", time.Hour).Verify(token)
	assert.Error(t, err)

	expired, err := NewSessionManager("test-secret", -time.Minute).Issue("user-123")
	require.NoError(t, err)
	_, err = sm.Verify(expired)
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	sm := NewSessionManager("test-secret", time.Hour)

	var seenID string
	handler := sm.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// no cookie
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// garbage token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-token"})
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid session
	token, err := sm.Issue("user-123")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-123", seenID)
}

func TestOptionalAuth(t *testing.T) {
	sm := NewSessionManager("test-secret", time.Hour)

	var seenID string
	var seenOK bool
	handler := sm.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, seenOK = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// anonymous requests pass through without an identity
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, seenOK)

	token, err := sm.Issue("user-123")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, seenOK)
	assert.Equal(t, "user-123", seenID)
}
