package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yafa-kitchen/recipes/models"
)

// SortOrder selects the ordering of a recipe listing.
type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortPopular SortOrder = "popular"
	SortFastest SortOrder = "fastest"
)

// SearchFields selects which columns a free-text search matches against.
type SearchFields int

const (
	SearchTitleDescription SearchFields = iota
	SearchTitleSlug
)

// RecipeFilter is a validated listing query. Nil and empty fields add no constraint.
type RecipeFilter struct {
	Search       string
	SearchIn     SearchFields
	CategorySlug string
	Difficulty   *models.Difficulty
	Kashrut      *models.Kashrut
	Status       *models.RecipeStatus
	Sort         SortOrder
}

// SitemapEntry is the minimal projection used to build the sitemap.
type SitemapEntry struct {
	Slug      string
	UpdatedAt time.Time
}

type (
	RecipeRepository interface {
		Find(ctx context.Context, f RecipeFilter, offset, limit int) ([]models.Recipe, int64, error)
		Top(ctx context.Context, n int, publishedOnly bool) ([]models.Recipe, error)
		Count(ctx context.Context, status *models.RecipeStatus) (int64, error)
		GetByID(ctx context.Context, id string) (*models.Recipe, error)
		GetPublishedBySlug(ctx context.Context, slug string) (*models.Recipe, error)
		SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
		Create(ctx context.Context, recipe *models.Recipe, tagNames []string) error
		Replace(ctx context.Context, recipe *models.Recipe, tagNames []string) error
		Delete(ctx context.Context, id string) error
		PublishedSitemap(ctx context.Context) ([]SitemapEntry, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// filtered applies every constraint of f to a fresh recipes query.
func (r *recipeRepository) filtered(ctx context.Context, f RecipeFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Recipe{})

	if f.Status != nil {
		q = q.Where("recipes.status = ?", *f.Status)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		if f.SearchIn == SearchTitleSlug {
			q = q.Where("(LOWER(recipes.title) LIKE ? OR LOWER(recipes.slug) LIKE ?)", like, like)
		} else {
			q = q.Where("(LOWER(recipes.title) LIKE ? OR LOWER(recipes.description) LIKE ?)", like, like)
		}
	}
	if f.CategorySlug != "" {
		sub := r.db.WithContext(ctx).Model(&models.Category{}).Select("id").Where("slug = ?", f.CategorySlug)
		q = q.Where("recipes.category_id IN (?)", sub)
	}
	if f.Difficulty != nil {
		q = q.Where("recipes.difficulty = ?", *f.Difficulty)
	}
	if f.Kashrut != nil {
		q = q.Where("recipes.kashrut = ?", *f.Kashrut)
	}
	return q
}

// orderBy always ends with the primary key so pages never overlap.
func orderBy(s SortOrder) string {
	switch s {
	case SortPopular:
		return "recipes.view_count DESC, recipes.id ASC"
	case SortFastest:
		return "recipes.prep_time ASC, recipes.id ASC"
	default:
		return "recipes.created_at DESC, recipes.id ASC"
	}
}

func (r *recipeRepository) listQuery(ctx context.Context, f RecipeFilter, offset, limit int) *gorm.DB {
	return r.filtered(ctx, f).
		Preload("Category").
		Order(orderBy(f.Sort)).
		Offset(offset).
		Limit(limit)
}

func (r *recipeRepository) Find(ctx context.Context, f RecipeFilter, offset, limit int) ([]models.Recipe, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	recipes := []models.Recipe{}
	if int64(offset) >= total {
		return recipes, total, nil
	}
	if err := r.listQuery(ctx, f, offset, limit).Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (r *recipeRepository) topQuery(ctx context.Context, n int, publishedOnly bool) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Recipe{})
	if publishedOnly {
		q = q.Where("recipes.status = ?", models.StatusPublished)
	}
	return q.Preload("Category").Order(orderBy(SortPopular)).Limit(n)
}

func (r *recipeRepository) Top(ctx context.Context, n int, publishedOnly bool) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	if err := r.topQuery(ctx, n, publishedOnly).Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) Count(ctx context.Context, status *models.RecipeStatus) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Recipe{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Count(&n).Error
	return n, err
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("Steps", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("name ASC") })
}

func (r *recipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withDetails(r.db.WithContext(ctx)).Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.Recipe, error) {
	var recipe models.Recipe
	err := withDetails(r.db.WithContext(ctx)).
		Where("slug = ? AND status = ?", slug, models.StatusPublished).
		First(&recipe).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("slug = ?", slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// upsertTags returns the tag rows for names, creating the missing ones.
func upsertTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		var tag models.Tag
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe, tagNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := upsertTags(tx, tagNames)
		if err != nil {
			return err
		}
		recipe.Tags = tags
		return conflict(tx.Omit("Category").Create(recipe).Error)
	})
}

// Replace overwrites the recipe's own columns and its ingredients, steps and tags.
// The view counter and creation time are left as stored.
func (r *recipeRepository) Replace(ctx context.Context, recipe *models.Recipe, tagNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Recipe{ID: recipe.ID}).
			Select("*").
			Omit("id", "view_count", "created_at", clause.Associations).
			Updates(recipe)
		if res.Error != nil {
			return conflict(res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Step{}).Error; err != nil {
			return err
		}
		for i := range recipe.Ingredients {
			recipe.Ingredients[i].ID = 0
			recipe.Ingredients[i].RecipeID = recipe.ID
		}
		for i := range recipe.Steps {
			recipe.Steps[i].ID = 0
			recipe.Steps[i].RecipeID = recipe.ID
		}
		if len(recipe.Ingredients) > 0 {
			if err := tx.Create(&recipe.Ingredients).Error; err != nil {
				return err
			}
		}
		if len(recipe.Steps) > 0 {
			if err := tx.Create(&recipe.Steps).Error; err != nil {
				return err
			}
		}

		tags, err := upsertTags(tx, tagNames)
		if err != nil {
			return err
		}
		recipe.Tags = tags
		assoc := tx.Model(&models.Recipe{ID: recipe.ID}).Association("Tags")
		if len(tags) == 0 {
			return assoc.Clear()
		}
		return assoc.Replace(tags)
	})
}

// Delete removes the recipe with its ingredients, steps and tag links. View events are kept.
func (r *recipeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Step{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Recipe{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *recipeRepository) PublishedSitemap(ctx context.Context) ([]SitemapEntry, error) {
	var rows []SitemapEntry
	err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("slug", "updated_at").
		Where("status = ?", models.StatusPublished).
		Order("updated_at DESC").
		Scan(&rows).Error
	return rows, err
}

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
