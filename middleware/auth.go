package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yafa-kitchen/recipes/config"
	"github.com/yafa-kitchen/recipes/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextRoleKey stores the token role inside Gin context.
	ContextRoleKey = "role"
	// ContextTokenKey stores the raw bearer token, for logout.
	ContextTokenKey = "token"
	// ContextClaimsKey stores the parsed claims.
	ContextClaimsKey = "claims"
)

// Revocations is the subset of utils.TokenRevoker the middleware needs.
type Revocations interface {
	IsRevoked(token string) bool
}

func bearerToken(ctx *gin.Context) (string, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", 40101, "authorization header missing"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", 40102, "invalid authorization header format"
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", 40103, "empty bearer token"
	}
	return token, 0, ""
}

func authenticate(ctx *gin.Context, revoked Revocations) (int, string) {
	token, code, msg := bearerToken(ctx)
	if code != 0 {
		return code, msg
	}
	if revoked != nil && revoked.IsRevoked(token) {
		return 40104, "token revoked"
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		return 40105, "invalid token"
	}
	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextRoleKey, claims.Role)
	ctx.Set(ContextTokenKey, token)
	ctx.Set(ContextClaimsKey, claims)
	return 0, ""
}

// OptionalAuth attaches the user when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(revoked Revocations) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader("Authorization") != "" {
			_, _ = authenticate(ctx, revoked)
		}
		ctx.Next()
	}
}

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired(revoked Revocations) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if code, msg := authenticate(ctx, revoked); code != 0 {
			utils.Abort(ctx, http.StatusUnauthorized, code, msg)
			return
		}
		ctx.Next()
	}
}

// AdminRequired must run after AuthRequired. It admits admin-role tokens and
// users listed in the configured admin ids.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetString(ContextRoleKey) == utils.RoleAdmin || config.Get().IsAdminUserID(ctx.GetString(ContextUserIDKey)) {
			ctx.Next()
			return
		}
		utils.Abort(ctx, http.StatusForbidden, 40301, "admin access required")
	}
}

// CurrentUserID returns the authenticated user id, or "" for anonymous requests.
func CurrentUserID(ctx *gin.Context) string {
	return ctx.GetString(ContextUserIDKey)
}
