package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yafa-kitchen/recipes/models"
	"github.com/yafa-kitchen/recipes/repository"
	"github.com/yafa-kitchen/recipes/services"
	"github.com/yafa-kitchen/recipes/utils"
)

// Catalog is the public read side of the recipe store.
type Catalog interface {
	Query(ctx context.Context, q services.ListQuery) (*services.RecipePage, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Recipe, error)
	Home(ctx context.Context) (*services.HomeFeed, error)
	Sitemap(ctx context.Context) ([]repository.SitemapEntry, error)
}

// ViewTracker records views without blocking the request.
type ViewTracker interface {
	RecordAsync(scope models.ViewScope, subjectID *string, viewerKey string)
}

// DashboardSource builds the back office overview.
type DashboardSource interface {
	Dashboard(ctx context.Context) (*services.Dashboard, error)
}

// RecipeEditor is the back office write side.
type RecipeEditor interface {
	List(ctx context.Context, p services.ListParams) (*services.RecipePage, error)
	Get(ctx context.Context, id string) (*models.Recipe, error)
	Create(ctx context.Context, in services.RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, id string, in services.RecipeInput) (*models.Recipe, error)
	Delete(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (*models.Recipe, error)
}

// CategoryStore manages categories.
type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, in services.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id string, in services.CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}

func listParams(ctx *gin.Context) services.ListParams {
	return services.ListParams{
		Query:      ctx.Query("q"),
		Category:   ctx.Query("category"),
		Difficulty: ctx.Query("difficulty"),
		Kashrut:    ctx.Query("kashrut"),
		Status:     ctx.Query("status"),
		Sort:       ctx.Query("sort"),
		Page:       ctx.Query("page"),
	}
}

// respondServiceError maps domain errors onto the envelope. Unknown errors are
// logged and reported as a generic failure with fallback code.
func respondServiceError(ctx *gin.Context, err error, fallback int, message string) {
	switch {
	case errors.Is(err, services.ErrRecipeNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, "recipe not found")
	case errors.Is(err, services.ErrCategoryNotFound):
		utils.Error(ctx, http.StatusNotFound, 40402, "category not found")
	case errors.Is(err, services.ErrSlugTaken):
		utils.Error(ctx, http.StatusConflict, 40901, "slug already in use, choose another one")
	case errors.Is(err, services.ErrCategoryExists):
		utils.Error(ctx, http.StatusConflict, 40902, "a category with this name or slug already exists")
	case errors.Is(err, services.ErrInvalidInput):
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	default:
		utils.Sugar.Errorw(message, "error", err, "path", ctx.FullPath())
		utils.Error(ctx, http.StatusInternalServerError, fallback, message)
	}
}
