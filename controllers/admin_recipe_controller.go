package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yafa-kitchen/recipes/services"
	"github.com/yafa-kitchen/recipes/utils"
)

// AdminRecipeController manages recipes in the back office.
type AdminRecipeController struct {
	editor RecipeEditor
}

func NewAdminRecipeController(editor RecipeEditor) *AdminRecipeController {
	return &AdminRecipeController{editor: editor}
}

// List searches titles and slugs across every status.
func (a *AdminRecipeController) List(ctx *gin.Context) {
	page, err := a.editor.List(ctx.Request.Context(), listParams(ctx))
	if err != nil {
		respondServiceError(ctx, err, 50020, "failed to list recipes")
		return
	}
	utils.Success(ctx, page)
}

func (a *AdminRecipeController) Get(ctx *gin.Context) {
	recipe, err := a.editor.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err, 50021, "failed to load recipe")
		return
	}
	utils.Success(ctx, gin.H{"recipe": recipe})
}

func (a *AdminRecipeController) Create(ctx *gin.Context) {
	var req services.RecipeInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	recipe, err := a.editor.Create(ctx.Request.Context(), req)
	if err != nil {
		respondServiceError(ctx, err, 50022, "failed to create recipe")
		return
	}
	utils.Created(ctx, gin.H{"recipe": recipe})
}

func (a *AdminRecipeController) Update(ctx *gin.Context) {
	var req services.RecipeInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	recipe, err := a.editor.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		respondServiceError(ctx, err, 50023, "failed to update recipe")
		return
	}
	utils.Success(ctx, gin.H{"recipe": recipe})
}

func (a *AdminRecipeController) Delete(ctx *gin.Context) {
	if err := a.editor.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondServiceError(ctx, err, 50024, "failed to delete recipe")
		return
	}
	utils.Success(ctx, gin.H{"deleted": true})
}

// Duplicate copies a recipe as a new draft.
func (a *AdminRecipeController) Duplicate(ctx *gin.Context) {
	recipe, err := a.editor.Duplicate(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err, 50025, "failed to duplicate recipe")
		return
	}
	utils.Created(ctx, gin.H{"recipe": recipe})
}
