package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yafa-kitchen/recipes/services"
	"github.com/yafa-kitchen/recipes/utils"
)

// CategoryController serves the public category list and the admin category screens.
type CategoryController struct {
	store CategoryStore
	cache *utils.Cache
}

// NewCategoryController creates a controller. A nil cache disables caching.
func NewCategoryController(store CategoryStore, cache *utils.Cache) *CategoryController {
	return &CategoryController{store: store, cache: cache}
}

// List returns every category, served from cache when possible.
func (c *CategoryController) List(ctx *gin.Context) {
	if b, ok := c.cache.GetBytes(ctx.Request.Context(), utils.CacheKeyCategories); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	items, err := c.store.List(ctx.Request.Context())
	if err != nil {
		respondServiceError(ctx, err, 50040, "failed to list categories")
		return
	}
	payload := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"items": items}}
	c.cache.SetJSON(ctx.Request.Context(), utils.CacheKeyCategories, payload)
	ctx.JSON(http.StatusOK, payload)
}

func (c *CategoryController) Create(ctx *gin.Context) {
	var req services.CategoryInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	cat, err := c.store.Create(ctx.Request.Context(), req)
	if err != nil {
		respondServiceError(ctx, err, 50041, "failed to create category")
		return
	}
	c.cache.InvalidateByPrefix(ctx.Request.Context(), utils.CachePrefixCategories)
	utils.Created(ctx, gin.H{"category": cat})
}

func (c *CategoryController) Update(ctx *gin.Context) {
	var req services.CategoryInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	cat, err := c.store.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		respondServiceError(ctx, err, 50042, "failed to update category")
		return
	}
	c.cache.InvalidateByPrefix(ctx.Request.Context(), utils.CachePrefixCategories)
	utils.Success(ctx, gin.H{"category": cat})
}

// Delete removes a category. Its recipes become uncategorised.
func (c *CategoryController) Delete(ctx *gin.Context) {
	if err := c.store.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondServiceError(ctx, err, 50043, "failed to delete category")
		return
	}
	c.cache.InvalidateByPrefix(ctx.Request.Context(), utils.CachePrefixCategories)
	utils.Success(ctx, gin.H{"deleted": true})
}
