package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yafa-kitchen/recipes/models"
)

type (
	ViewEventRepository interface {
		// ExistsSince reports whether the viewer already has an event for the subject at or after since.
		ExistsSince(ctx context.Context, scope models.ViewScope, recipeID *string, viewerKey string, since time.Time) (bool, error)
		// Insert appends the event. RECIPE events also bump recipes.view_count in the same
		// transaction; gorm.ErrRecordNotFound means the recipe does not exist and nothing was written.
		Insert(ctx context.Context, event *models.ViewEvent) error
		// CountSince counts events of scope; a nil since counts all of them.
		CountSince(ctx context.Context, scope models.ViewScope, since *time.Time) (int64, error)
		TimesSince(ctx context.Context, scope models.ViewScope, since time.Time) ([]time.Time, error)
	}

	viewEventRepository struct {
		db *gorm.DB
	}
)

func NewViewEventRepository(db *gorm.DB) ViewEventRepository {
	return &viewEventRepository{db: db}
}

func (r *viewEventRepository) existsQuery(ctx context.Context, scope models.ViewScope, recipeID *string, viewerKey string, since time.Time) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.ViewEvent{}).
		Where("scope = ? AND viewer_key = ? AND created_at >= ?", scope, viewerKey, since)
	if recipeID == nil {
		q = q.Where("recipe_id IS NULL")
	} else {
		q = q.Where("recipe_id = ?", *recipeID)
	}
	return q.Limit(1)
}

func (r *viewEventRepository) ExistsSince(ctx context.Context, scope models.ViewScope, recipeID *string, viewerKey string, since time.Time) (bool, error) {
	var ids []uint
	if err := r.existsQuery(ctx, scope, recipeID, viewerKey, since).Pluck("id", &ids).Error; err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (r *viewEventRepository) Insert(ctx context.Context, event *models.ViewEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if event.Scope == models.ScopeRecipe && event.RecipeID != nil {
			res := tx.Model(&models.Recipe{}).
				Where("id = ?", *event.RecipeID).
				UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return tx.Create(event).Error
	})
}

func (r *viewEventRepository) CountSince(ctx context.Context, scope models.ViewScope, since *time.Time) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.ViewEvent{}).Where("scope = ?", scope)
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *viewEventRepository) TimesSince(ctx context.Context, scope models.ViewScope, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Model(&models.ViewEvent{}).
		Where("scope = ? AND created_at >= ?", scope, since).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	return times, err
}
