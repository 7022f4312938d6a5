package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yafa-kitchen/recipes/models"
	"github.com/yafa-kitchen/recipes/repository"
	"github.com/yafa-kitchen/recipes/utils"
)

type IngredientInput struct {
	Name   string `json:"name" binding:"required,max=255"`
	Amount string `json:"amount" binding:"required,max=64"`
	Unit   string `json:"unit" binding:"required,max=64"`
	Notes  string `json:"notes" binding:"max=255"`
}

type StepInput struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"required"`
	Time        *int   `json:"time" binding:"omitempty,min=0"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
}

// RecipeInput is the back office recipe payload. An empty slug is derived from the title.
type RecipeInput struct {
	Title         string            `json:"title" binding:"required,max=255"`
	Slug          string            `json:"slug" binding:"omitempty,slug,max=191"`
	Description   string            `json:"description" binding:"required"`
	ImageURL      string            `json:"image_url" binding:"omitempty,url"`
	GalleryImages []string          `json:"gallery_images" binding:"omitempty,dive,url"`
	PrepTime      int               `json:"prep_time" binding:"min=0"`
	CookTime      int               `json:"cook_time" binding:"min=0"`
	Servings      int               `json:"servings" binding:"required,min=1"`
	Difficulty    string            `json:"difficulty" binding:"required,oneof=EASY MEDIUM HARD"`
	Kashrut       string            `json:"kashrut" binding:"required,oneof=KOSHER NOT_KOSHER DAIRY MEAT PAREVE"`
	Status        string            `json:"status" binding:"required,oneof=DRAFT PUBLISHED"`
	CategoryID    string            `json:"category_id"`
	Tags          []string          `json:"tags"`
	Tips          string            `json:"tips"`
	Allergens     []string          `json:"allergens"`
	VideoURL      string            `json:"video_url" binding:"omitempty,url"`
	Ingredients   []IngredientInput `json:"ingredients" binding:"required,min=1,dive"`
	Steps         []StepInput       `json:"steps" binding:"required,min=1,dive"`
}

// RecipeAdminService implements recipe authoring.
type RecipeAdminService struct {
	recipes    repository.RecipeRepository
	categories repository.CategoryRepository
	now        func() time.Time
}

func NewRecipeAdminService(recipes repository.RecipeRepository, categories repository.CategoryRepository) *RecipeAdminService {
	return &RecipeAdminService{recipes: recipes, categories: categories, now: time.Now}
}

// List runs an admin mode listing.
func (s *RecipeAdminService) List(ctx context.Context, p ListParams) (*RecipePage, error) {
	return NewCatalogService(s.recipes).Query(ctx, ParseAdminParams(p))
}

func (s *RecipeAdminService) Get(ctx context.Context, id string) (*models.Recipe, error) {
	r, err := s.recipes.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

func (s *RecipeAdminService) Create(ctx context.Context, in RecipeInput) (*models.Recipe, error) {
	recipe, err := s.build(ctx, in, "")
	if err != nil {
		return nil, err
	}
	if err := s.recipes.Create(ctx, recipe, utils.CleanStrings(in.Tags)); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return recipe, nil
}

// Update replaces the recipe content. View count and creation time are kept.
func (s *RecipeAdminService) Update(ctx context.Context, id string, in RecipeInput) (*models.Recipe, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	recipe, err := s.build(ctx, in, id)
	if err != nil {
		return nil, err
	}
	recipe.ID = id
	if err := s.recipes.Replace(ctx, recipe, utils.CleanStrings(in.Tags)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *RecipeAdminService) Delete(ctx context.Context, id string) error {
	err := s.recipes.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecipeNotFound
	}
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// Duplicate copies a recipe as a new draft with zero views.
func (s *RecipeAdminService) Duplicate(ctx context.Context, id string) (*models.Recipe, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cp := &models.Recipe{
		Title:         src.Title + " (copy)",
		Slug:          duplicateSlug(src.Slug, s.now()),
		Description:   src.Description,
		ImageURL:      src.ImageURL,
		GalleryImages: append(datatypes.JSONSlice[string]{}, src.GalleryImages...),
		PrepTime:      src.PrepTime,
		CookTime:      src.CookTime,
		Servings:      src.Servings,
		Difficulty:    src.Difficulty,
		Kashrut:       src.Kashrut,
		Status:        models.StatusDraft,
		Tips:          src.Tips,
		Allergens:     append(datatypes.JSONSlice[string]{}, src.Allergens...),
		VideoURL:      src.VideoURL,
		CategoryID:    src.CategoryID,
	}
	for _, ing := range src.Ingredients {
		ing.ID, ing.RecipeID = 0, ""
		cp.Ingredients = append(cp.Ingredients, ing)
	}
	for _, st := range src.Steps {
		st.ID, st.RecipeID = 0, ""
		cp.Steps = append(cp.Steps, st)
	}
	tags := make([]string, 0, len(src.Tags))
	for _, t := range src.Tags {
		tags = append(tags, t.Name)
	}

	if err := s.recipes.Create(ctx, cp, tags); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("duplicate recipe: %w", err)
	}
	return cp, nil
}

// duplicateSlug appends the copy suffix, clipping the source slug so the result
// still fits the column.
func duplicateSlug(src string, now time.Time) string {
	suffix := fmt.Sprintf("-copy-%d", now.UnixMilli())
	return utils.TruncateSlug(src, models.SlugMaxLen-len(suffix)) + suffix
}

// build validates references and turns the payload into a model. excludeID is the
// recipe being edited, if any, for the slug uniqueness check.
func (s *RecipeAdminService) build(ctx context.Context, in RecipeInput, excludeID string) (*models.Recipe, error) {
	title := utils.PlainText(in.Title)
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = utils.TruncateSlug(utils.Slugify(title), models.SlugMaxLen)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: cannot derive a slug from the title", ErrInvalidInput)
	}
	if utf8.RuneCountInString(slug) > models.SlugMaxLen {
		return nil, fmt.Errorf("%w: slug longer than %d characters", ErrInvalidInput, models.SlugMaxLen)
	}

	taken, err := s.recipes.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return nil, ErrSlugTaken
	}

	difficulty, ok := models.ParseDifficulty(in.Difficulty)
	if !ok {
		return nil, fmt.Errorf("%w: difficulty", ErrInvalidInput)
	}
	kashrut, ok := models.ParseKashrut(in.Kashrut)
	if !ok {
		return nil, fmt.Errorf("%w: kashrut", ErrInvalidInput)
	}
	status, ok := models.ParseStatus(in.Status)
	if !ok {
		return nil, fmt.Errorf("%w: status", ErrInvalidInput)
	}

	var categoryID *string
	if id := strings.TrimSpace(in.CategoryID); id != "" {
		if _, err := s.categories.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("get category: %w", err)
		}
		categoryID = &id
	}

	recipe := &models.Recipe{
		Title:         title,
		Slug:          slug,
		Description:   utils.Sanitize(in.Description),
		ImageURL:      strings.TrimSpace(in.ImageURL),
		GalleryImages: utils.CleanStrings(in.GalleryImages),
		PrepTime:      in.PrepTime,
		CookTime:      in.CookTime,
		Servings:      in.Servings,
		Difficulty:    difficulty,
		Kashrut:       kashrut,
		Status:        status,
		Tips:          utils.Sanitize(in.Tips),
		Allergens:     utils.CleanStrings(in.Allergens),
		VideoURL:      strings.TrimSpace(in.VideoURL),
		CategoryID:    categoryID,
	}
	for i, ing := range in.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.Ingredient{
			Name:   utils.PlainText(ing.Name),
			Amount: utils.PlainText(ing.Amount),
			Unit:   utils.PlainText(ing.Unit),
			Notes:  utils.PlainText(ing.Notes),
			Order:  i,
		})
	}
	for i, st := range in.Steps {
		recipe.Steps = append(recipe.Steps, models.Step{
			Title:       utils.PlainText(st.Title),
			Description: utils.Sanitize(st.Description),
			Time:        st.Time,
			ImageURL:    strings.TrimSpace(st.ImageURL),
			Order:       i,
		})
	}
	return recipe, nil
}
