package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yafa-kitchen/recipes/models"
)

type (
	CategoryRepository interface {
		List(ctx context.Context) ([]models.Category, error)
		GetByID(ctx context.Context, id string) (*models.Category, error)
		// Conflicts reports whether another category already uses name or slug.
		Conflicts(ctx context.Context, name, slug, excludeID string) (bool, error)
		Create(ctx context.Context, c *models.Category) error
		Update(ctx context.Context, c *models.Category) error
		Delete(ctx context.Context, id string) error
	}

	categoryRepository struct {
		db *gorm.DB
	}
)

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) Conflicts(ctx context.Context, name, slug, excludeID string) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.Category{}).Where("(name = ? OR slug = ?)", name, slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *models.Category) error {
	return conflict(r.db.WithContext(ctx).Create(c).Error)
}

func (r *categoryRepository) Update(ctx context.Context, c *models.Category) error {
	res := r.db.WithContext(ctx).Model(&models.Category{ID: c.ID}).Updates(map[string]interface{}{
		"name": c.Name,
		"slug": c.Slug,
	})
	if res.Error != nil {
		return conflict(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the category and detaches its recipes instead of deleting them.
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Recipe{}).
			Where("category_id = ?", id).
			UpdateColumn("category_id", gorm.Expr("NULL")).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
