package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yafa-kitchen/recipes/config"
	"github.com/yafa-kitchen/recipes/middleware"
	"github.com/yafa-kitchen/recipes/models"
	"github.com/yafa-kitchen/recipes/services"
	"github.com/yafa-kitchen/recipes/utils"
)

// TrackController receives the fire-and-forget view beacons.
// Rate limiting is applied by middleware in front of it.
type TrackController struct {
	tracker ViewTracker
}

func NewTrackController(tracker ViewTracker) *TrackController {
	return &TrackController{tracker: tracker}
}

// resolveViewer identifies the caller and sets the visitor cookie when a token was minted.
func (t *TrackController) resolveViewer(ctx *gin.Context) services.ViewerIdentity {
	cookie, _ := ctx.Cookie(services.VisitorCookieName)
	viewer := services.ResolveViewer(middleware.CurrentUserID(ctx), cookie)
	if viewer.Mint {
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(services.VisitorCookieName, viewer.Key, services.VisitorCookieMaxAge, "/", "", config.Get().SecureCookies, true)
	}
	return viewer
}

// SiteView records a visit to the site.
func (t *TrackController) SiteView(ctx *gin.Context) {
	viewer := t.resolveViewer(ctx)
	t.tracker.RecordAsync(models.ScopeSite, nil, viewer.Key)
	utils.Success(ctx, gin.H{"ok": true})
}

// RecipeView records a view of the recipe given by the recipeId query parameter.
func (t *TrackController) RecipeView(ctx *gin.Context) {
	recipeID := strings.TrimSpace(ctx.Query("recipeId"))
	if recipeID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40001, "recipeId is required")
		return
	}
	if _, err := uuid.Parse(recipeID); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid recipeId")
		return
	}

	viewer := t.resolveViewer(ctx)
	t.tracker.RecordAsync(models.ScopeRecipe, &recipeID, viewer.Key)
	utils.Success(ctx, gin.H{"ok": true})
}
