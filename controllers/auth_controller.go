package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yafa-kitchen/recipes/config"
	"github.com/yafa-kitchen/recipes/middleware"
	"github.com/yafa-kitchen/recipes/utils"
)

const (
	adminTokenTTL = 12 * time.Hour
	oauthStateTTL = 10 * time.Minute
)

// TokenRevoker is implemented by utils.TokenRevoker.
type TokenRevoker interface {
	Revoke(token string, expiresAt time.Time)
}

// StateStore is implemented by utils.StateStore.
type StateStore interface {
	Save(state string, ttl time.Duration)
	Consume(state string) bool
}

// AuthController handles the back office login.
type AuthController struct {
	revoker TokenRevoker
	oauth   *OAuthProvider
	states  StateStore
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(revoker TokenRevoker) *AuthController {
	return &AuthController{revoker: revoker}
}

// WithOAuth enables sign-in through provider for accounts listed in the admin ids.
func (a *AuthController) WithOAuth(provider *OAuthProvider, states StateStore) *AuthController {
	a.oauth = provider
	a.states = states
	return a
}

// Login checks the configured admin credentials and issues an admin token.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	cfg := config.Get()
	if cfg.AdminUsername == "" || cfg.AdminPasswordHash == "" {
		utils.Error(ctx, http.StatusServiceUnavailable, 50301, "admin login is not configured")
		return
	}
	if strings.TrimSpace(req.Username) != cfg.AdminUsername || !utils.CheckPassword(cfg.AdminPasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	a.issueAdminToken(ctx, "admin:"+cfg.AdminUsername)
}

// OAuthRedirect returns the provider authorization URL and its single-use state.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	if a.oauth == nil || a.states == nil {
		utils.Error(ctx, http.StatusServiceUnavailable, 50302, "oauth login is not configured")
		return
	}

	state := uuid.NewString()
	a.states.Save(state, oauthStateTTL)
	utils.Success(ctx, gin.H{
		"authorization_url": a.oauth.Config.AuthCodeURL(state),
		"state":             state,
		"provider":          a.oauth.Name,
	})
}

// OAuthCallback exchanges the code and issues an admin token when the provider
// account is one of the configured admin ids.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	if a.oauth == nil || a.states == nil {
		utils.Error(ctx, http.StatusServiceUnavailable, 50302, "oauth login is not configured")
		return
	}

	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40005, "missing code or state")
		return
	}
	if !a.states.Consume(state) {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid or expired state")
		return
	}

	token, err := a.oauth.Config.Exchange(ctx.Request.Context(), code)
	if err != nil {
		utils.Sugar.Warnw("oauth code exchange failed", "provider", a.oauth.Name, "error", err)
		utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
		return
	}

	accountID, err := a.oauth.accountID(ctx.Request.Context(), token)
	if err != nil {
		utils.Sugar.Errorw("oauth user lookup failed", "provider", a.oauth.Name, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to fetch account")
		return
	}

	if !config.Get().IsAdminUserID(accountID) {
		utils.Sugar.Warnw("oauth sign-in by non-admin account", "account", accountID)
		utils.Error(ctx, http.StatusForbidden, 40302, "account is not an admin")
		return
	}
	a.issueAdminToken(ctx, accountID)
}

func (a *AuthController) issueAdminToken(ctx *gin.Context, userID string) {
	token, err := utils.GenerateToken(userID, utils.RoleAdmin, adminTokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_in": int(adminTokenTTL.Seconds()),
		"user_id":    userID,
	})
}

// Logout revokes the token until its own expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	raw, _ := ctx.Get(middleware.ContextClaimsKey)
	claims, ok := raw.(*utils.Claims)
	if token == "" || !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	expiresAt := time.Now().Add(adminTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if a.revoker != nil {
		a.revoker.Revoke(token, expiresAt)
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me echoes the authenticated identity.
func (a *AuthController) Me(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"user_id": middleware.CurrentUserID(ctx),
		"role":    ctx.GetString(middleware.ContextRoleKey),
	})
}
