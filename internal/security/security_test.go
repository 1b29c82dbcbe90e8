package security

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testPassword123")
	require.NoError(t, err)
	assert.NotEqual(t, "testPassword123", hash)

	assert.True(t, CheckPassword("testPassword123", hash))
	assert.False(t, CheckPassword("wrongPassword", hash))
	assert.False(t, CheckPassword("testPassword123", "not-a-hash"))
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, err := HashPassword("samePassword")
	require.NoError(t, err)
	b, err := HashPassword("samePassword")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret")

	token, err := issuer.Issue("session-1", 42, time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID())
	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret")

	expired, err := issuer.Issue("s", 1, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	forged, err := NewTokenIssuer("other-secret").Issue("s", 1, time.Now().Add(time.Hour))
	require.NoError(t, err)

	tests := map[string]string{
		"expired": expired,
		"forged":  forged,
		"garbage": "not.a.token",
		"empty":   "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCSRF(t *testing.T) {
	gen := NewCSRFGenerator("secret")

	token, err := gen.GenerateToken("session-1")
	require.NoError(t, err)
	assert.True(t, gen.ValidateToken("session-1", token))
	assert.False(t, gen.ValidateToken("session-2", token))
	assert.False(t, gen.ValidateToken("session-1", ""))

	_, err = gen.GenerateToken("")
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 2, time.Hour)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "clients are limited independently")
}

func TestRateLimiterLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 1, time.Hour)

	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	for _, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, want, rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))
}

func TestIsSecureRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, IsSecureRequest(r))

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.True(t, IsSecureRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	assert.True(t, IsSecureRequest(r))
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
		"Bearer  abc": "abc",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, BearerToken(r), "header %q", header)
	}
}

func TestSessionCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	c := CreateSessionCookie(r, SessionCookieName, "abc", time.Now().Add(time.Hour))
	assert.Equal(t, SessionCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)

	del := CreateDeleteCookie(r, SessionCookieName)
	assert.Equal(t, -1, del.MaxAge)
}
