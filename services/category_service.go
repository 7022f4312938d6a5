package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yafa-kitchen/recipes/models"
	"github.com/yafa-kitchen/recipes/repository"
	"github.com/yafa-kitchen/recipes/utils"
)

type CategoryInput struct {
	Name string `json:"name" binding:"required,max=128"`
	Slug string `json:"slug" binding:"omitempty,slug,max=128"`
}

type CategoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	c, err := s.normalize(ctx, in, "")
	if err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	c, err := s.normalize(ctx, in, id)
	if err != nil {
		return nil, err
	}
	c.ID = id
	if err := s.categories.Update(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.categories.GetByID(ctx, id)
}

// Delete removes the category. Its recipes stay, uncategorised.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	err := s.categories.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *CategoryService) normalize(ctx context.Context, in CategoryInput, excludeID string) (*models.Category, error) {
	name := utils.PlainText(in.Name)
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = utils.TruncateSlug(utils.Slugify(name), models.CategorySlugMaxLen)
	}
	if name == "" || slug == "" {
		return nil, fmt.Errorf("%w: category name", ErrInvalidInput)
	}

	clash, err := s.categories.Conflicts(ctx, name, slug, excludeID)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if clash {
		return nil, ErrCategoryExists
	}
	return &models.Category{Name: name, Slug: slug}, nil
}
