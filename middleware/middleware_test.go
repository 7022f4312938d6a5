package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yafa-kitchen/recipes/config"
	"github.com/yafa-kitchen/recipes/ratelimit"
	"github.com/yafa-kitchen/recipes/utils"
)

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(token string) bool { return r[token] }

func setup(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{JWTSecret: "mw-secret", AdminUserIDs: []string{"user_admin"}})
}

func do(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "203.0.113.7:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthChain(t *testing.T) {
	setup(t)
	adminTok, err := utils.GenerateToken("admin:chef", utils.RoleAdmin, time.Hour)
	require.NoError(t, err)
	listedTok, err := utils.GenerateToken("user_admin", "", time.Hour)
	require.NoError(t, err)
	userTok, err := utils.GenerateToken("user_1", "", time.Hour)
	require.NoError(t, err)
	revoked := revokedSet{}

	r := gin.New()
	r.GET("/admin", AuthRequired(revoked), AdminRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c))
	})

	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "garbage").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", userTok).Code)

	w := do(r, "/admin", adminTok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin:chef", w.Body.String())

	assert.Equal(t, http.StatusOK, do(r, "/admin", listedTok).Code)

	revoked[adminTok] = true
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", adminTok).Code)
}

func TestOptionalAuth(t *testing.T) {
	setup(t)
	tok, err := utils.GenerateToken("user_1", "", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/x", OptionalAuth(nil), func(c *gin.Context) { c.String(http.StatusOK, CurrentUserID(c)) })

	assert.Equal(t, "", do(r, "/x", "").Body.String())
	assert.Equal(t, "", do(r, "/x", "bad").Body.String())
	assert.Equal(t, "user_1", do(r, "/x", tok).Body.String())
}

func TestViewRateLimit(t *testing.T) {
	setup(t)
	r := gin.New()
	r.GET("/track", ViewRateLimit(ratelimit.NewFixedWindow(2, time.Minute), "site-view"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, do(r, "/track", "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/track", "").Code)
	w := do(r, "/track", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "42901")
}

func TestAPIThrottle(t *testing.T) {
	setup(t)
	th := NewAPIThrottle(4)
	r := gin.New()
	r.GET("/api", th.Handler("api"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, "/api", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "/api", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "/api", "").Code, "burst is half the per-minute rate")
}
