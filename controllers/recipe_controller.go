package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yafa-kitchen/recipes/services"
	"github.com/yafa-kitchen/recipes/utils"
)

// RecipeController serves the public catalog.
type RecipeController struct {
	catalog Catalog
}

func NewRecipeController(catalog Catalog) *RecipeController {
	return &RecipeController{catalog: catalog}
}

// Home returns the newest and most popular published recipes.
func (r *RecipeController) Home(ctx *gin.Context) {
	feed, err := r.catalog.Home(ctx.Request.Context())
	if err != nil {
		respondServiceError(ctx, err, 50010, "failed to load home feed")
		return
	}
	utils.Success(ctx, feed)
}

// List filters, sorts and paginates published recipes. Unknown filter values are ignored.
func (r *RecipeController) List(ctx *gin.Context) {
	page, err := r.catalog.Query(ctx.Request.Context(), services.ParsePublicParams(listParams(ctx)))
	if err != nil {
		respondServiceError(ctx, err, 50011, "failed to list recipes")
		return
	}
	utils.Success(ctx, page)
}

// Detail returns a published recipe by slug.
func (r *RecipeController) Detail(ctx *gin.Context) {
	recipe, err := r.catalog.GetPublishedBySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		respondServiceError(ctx, err, 50012, "failed to load recipe")
		return
	}
	if recipe == nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "recipe not found")
		return
	}
	utils.Success(ctx, gin.H{
		"recipe":     recipe,
		"total_time": recipe.TotalTime(),
	})
}
