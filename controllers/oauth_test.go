package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/yafa-kitchen/recipes/config"
	"github.com/yafa-kitchen/recipes/utils"
)

func newFakeProvider(t *testing.T) *OAuthProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-42","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-42" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"login":"chef"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &OAuthProvider{
		Name: "github",
		Config: &oauth2.Config{
			ClientID:     "cid",
			ClientSecret: "csecret",
			RedirectURL:  "http://localhost/api/v1/admin/oauth/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/authorize",
				TokenURL:  srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		UserInfoURL: srv.URL + "/user",
		IDField:     "id",
	}
}

func newOAuthRouter(ac *AuthController) *gin.Engine {
	r := gin.New()
	r.GET("/oauth/login", ac.OAuthRedirect)
	r.GET("/oauth/callback", ac.OAuthCallback)
	return r
}

func startOAuth(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := send(r, http.MethodGet, "/oauth/login", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		State            string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	require.NotEmpty(t, data.State)

	u, err := url.Parse(data.AuthorizationURL)
	require.NoError(t, err)
	assert.Equal(t, data.State, u.Query().Get("state"))
	assert.Equal(t, "cid", u.Query().Get("client_id"))
	return data.State
}

func TestOAuthCallback_AdminAccountGetsToken(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "oauth-secret", AdminUserIDs: []string{"github:42"}})
	r := newOAuthRouter(NewAuthController(nil).WithOAuth(newFakeProvider(t), utils.NewStateStore(nil)))

	state := startOAuth(t, r)
	w := send(r, http.MethodGet, "/oauth/callback?code=good-code&state="+state, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "github:42", data.UserID)

	claims, err := utils.ParseToken(data.Token)
	require.NoError(t, err)
	assert.Equal(t, "github:42", claims.UserID)
	assert.Equal(t, utils.RoleAdmin, claims.Role)

	// state is single use
	w = send(r, http.MethodGet, "/oauth/callback?code=good-code&state="+state, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40006, decode(t, w).Code)
}

func TestOAuthCallback_Rejections(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "oauth-secret", AdminUserIDs: []string{"github:7"}})
	r := newOAuthRouter(NewAuthController(nil).WithOAuth(newFakeProvider(t), utils.NewStateStore(nil)))

	w := send(r, http.MethodGet, "/oauth/callback?code=good-code", nil)
	assert.Equal(t, 40005, decode(t, w).Code)

	w = send(r, http.MethodGet, "/oauth/callback?code=good-code&state=forged", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40006, decode(t, w).Code)

	w = send(r, http.MethodGet, "/oauth/callback?code=bad-code&state="+startOAuth(t, r), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40007, decode(t, w).Code)

	// github:42 signs in fine but is not on the admin list
	w = send(r, http.MethodGet, "/oauth/callback?code=good-code&state="+startOAuth(t, r), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40302, decode(t, w).Code)
}

func TestOAuth_NotConfigured(t *testing.T) {
	r := newOAuthRouter(NewAuthController(nil))
	w := send(r, http.MethodGet, "/oauth/login", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 50302, decode(t, w).Code)
	assert.Equal(t, http.StatusServiceUnavailable, send(r, http.MethodGet, "/oauth/callback?code=x&state=y", nil).Code)
}

func TestNewOAuthProvider(t *testing.T) {
	p, err := NewOAuthProvider(config.AppConfig{})
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewOAuthProvider(config.AppConfig{OAuthProvider: "github"})
	assert.Error(t, err)

	_, err = NewOAuthProvider(config.AppConfig{OAuthProvider: "gitlab", OAuthClientID: "a", OAuthClientSecret: "b"})
	assert.Error(t, err)

	p, err = NewOAuthProvider(config.AppConfig{
		OAuthProvider:     "GitHub",
		OAuthClientID:     "a",
		OAuthClientSecret: "b",
		OAuthRedirectBase: "https://yafa.example/",
	})
	require.NoError(t, err)
	assert.Equal(t, "github", p.Name)
	assert.Equal(t, "https://yafa.example/api/v1/admin/oauth/callback", p.Config.RedirectURL)
	assert.Equal(t, "id", p.IDField)

	p, err = NewOAuthProvider(config.AppConfig{OAuthProvider: "google", OAuthClientID: "a", OAuthClientSecret: "b"})
	require.NoError(t, err)
	assert.Equal(t, "sub", p.IDField)
}
