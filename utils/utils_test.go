package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yafa-kitchen/recipes/config"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"  Shakshuka Verde ":  "shakshuka-verde",
		"Mom's  Apple--Pie!":  "moms-apple-pie",
		"עוגת שוקולד":         "עוגת-שוקולד",
		"---":                 "",
		"Pasta 2 Ways":        "pasta-2-ways",
		"Crème brûlée":        "crme-brle",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestIsSlug(t *testing.T) {
	assert.True(t, IsSlug("shakshuka"))
	assert.True(t, IsSlug("pita-copy-1712345678901"))
	assert.True(t, IsSlug("עוגת-שוקולד"))
	assert.False(t, IsSlug("Shakshuka"))
	assert.False(t, IsSlug("-lead"))
	assert.False(t, IsSlug("double--dash"))
	assert.False(t, IsSlug(""))
}

func TestTruncateSlug(t *testing.T) {
	assert.Equal(t, "short", TruncateSlug("short", 10))
	assert.Equal(t, "abc", TruncateSlug("abc-def", 4), "no dangling dash")
	assert.Equal(t, "abc-d", TruncateSlug("abc-def", 5))
	assert.Equal(t, "עוג", TruncateSlug("עוגת-שוקולד", 3), "cut on rune boundaries")
	assert.Equal(t, "", TruncateSlug("abc", 0))
}

func TestCleanStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, CleanStrings([]string{" a", "", "b", "a ", "  "}))
	assert.Equal(t, []string{}, CleanStrings(nil))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Hello", PlainText("  <b>Hello</b> "))
	assert.NotContains(t, Sanitize(`<a href="javascript:alert(1)">x</a>`), "javascript")
}

func TestTokenRoundTrip(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "test-secret"})

	tok, err := GenerateToken("admin:chef", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin:chef", claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)

	expired, err := GenerateToken("admin:chef", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err)

	config.Set(config.AppConfig{JWTSecret: "rotated"})
	_, err = ParseToken(tok)
	assert.Error(t, err, "signature no longer matches")
}

func TestTokenRevokerLocal(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := NewTokenRevoker(nil)
	r.now = func() time.Time { return now }

	r.Revoke("tok", now.Add(time.Hour))
	assert.True(t, r.IsRevoked("tok"))
	assert.False(t, r.IsRevoked("other"))

	now = now.Add(time.Hour)
	assert.False(t, r.IsRevoked("tok"), "revocation ends with the token's own expiry")

	r.Revoke("stale", now.Add(-time.Second))
	assert.False(t, r.IsRevoked("stale"))
}

func TestTokenRevokerPrunesExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := NewTokenRevoker(nil)
	r.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		r.Revoke(string(rune('a'+i)), now.Add(time.Minute))
	}
	require.Len(t, r.local, 5)

	now = now.Add(2 * time.Minute)
	r.Revoke("fresh", now.Add(time.Hour))
	assert.Len(t, r.local, 1)
	assert.True(t, r.IsRevoked("fresh"))
}

func TestStateStoreSingleUse(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s := NewStateStore(nil)
	s.now = func() time.Time { return now }

	s.Save("s1", time.Minute)
	s.Save("s2", time.Minute)
	assert.True(t, s.Consume("s1"))
	assert.False(t, s.Consume("s1"))
	assert.False(t, s.Consume(""))
	assert.False(t, s.Consume("unknown"))

	now = now.Add(2 * time.Minute)
	assert.False(t, s.Consume("s2"))

	s.Save("s3", time.Minute)
	assert.Len(t, s.local, 1)
}

func TestAbortWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	reached := false
	r.GET("/x", func(c *gin.Context) { Abort(c, http.StatusTooManyRequests, 42901, "rate limit exceeded") }, func(c *gin.Context) { reached = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, reached)
	var body JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 42901, body.Code)
}

func TestGinzapAndRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(Ginzap(logger, time.RFC3339, true), RecoveryWithZap(logger, false))
	r.GET("/ok", func(c *gin.Context) { Success(c, nil) })
	r.GET("/boom", func(c *gin.Context) { panic(errors.New("boom")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?a=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "50000")

	assert.Equal(t, 1, logs.FilterMessage("/ok").Len())
	assert.Equal(t, 1, logs.FilterMessage("[Recovery from panic]").Len())
	assert.Equal(t, 1, logs.FilterMessage("/boom").FilterField(zap.Int("status", 500)).Len())
}
