package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yafa-kitchen/recipes/models"
	"github.com/yafa-kitchen/recipes/repository"
)

const (
	PageSize = 12
	// maxPage keeps the offset arithmetic far from overflow; such pages are empty anyway.
	maxPage = 1_000_000

	HomeSectionSize   = 6
	DefaultTopRecipes = 10
)

// ListParams are the raw, untrusted listing parameters of a request.
type ListParams struct {
	Query      string
	Category   string
	Difficulty string
	Kashrut    string
	Status     string
	Sort       string
	Page       string
}

// ListQuery is a normalized listing request.
type ListQuery struct {
	Filter repository.RecipeFilter
	Page   int
}

// RecipePage is one page of a listing.
type RecipePage struct {
	Items      []models.Recipe `json:"items"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// HomeFeed is the landing page content.
type HomeFeed struct {
	Newest  []models.Recipe `json:"newest"`
	Popular []models.Recipe `json:"popular"`
}

// ParsePublicParams normalizes visitor parameters. Status is always PUBLISHED,
// whatever p.Status says.
func ParsePublicParams(p ListParams) ListQuery {
	q := parseCommon(p)
	q.Filter.SearchIn = repository.SearchTitleDescription
	published := models.StatusPublished
	q.Filter.Status = &published
	return q
}

// ParseAdminParams normalizes back office parameters. Search also matches slugs
// and any recipe status can be listed.
func ParseAdminParams(p ListParams) ListQuery {
	q := parseCommon(p)
	q.Filter.SearchIn = repository.SearchTitleSlug
	if st, ok := models.ParseStatus(p.Status); ok {
		q.Filter.Status = &st
	}
	return q
}

func parseCommon(p ListParams) ListQuery {
	f := repository.RecipeFilter{
		Search:       strings.TrimSpace(p.Query),
		CategorySlug: strings.TrimSpace(p.Category),
		Sort:         parseSort(p.Sort),
	}
	if d, ok := models.ParseDifficulty(p.Difficulty); ok {
		f.Difficulty = &d
	}
	if k, ok := models.ParseKashrut(p.Kashrut); ok {
		f.Kashrut = &k
	}
	return ListQuery{Filter: f, Page: parsePage(p.Page)}
}

func parseSort(s string) repository.SortOrder {
	switch repository.SortOrder(strings.TrimSpace(s)) {
	case repository.SortPopular:
		return repository.SortPopular
	case repository.SortFastest:
		return repository.SortFastest
	default:
		return repository.SortNewest
	}
}

func parsePage(s string) int {
	page, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || page < 1 {
		return 1
	}
	if page > maxPage {
		return maxPage
	}
	return page
}

// TotalPages is ceil(total / PageSize).
func TotalPages(total int64) int {
	return int((total + PageSize - 1) / PageSize)
}

// CatalogService answers recipe listing, detail and ranking queries.
type CatalogService struct {
	recipes repository.RecipeRepository
}

func NewCatalogService(recipes repository.RecipeRepository) *CatalogService {
	return &CatalogService{recipes: recipes}
}

// Query returns one page of recipes matching q.
func (s *CatalogService) Query(ctx context.Context, q ListQuery) (*RecipePage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	items, total, err := s.recipes.Find(ctx, q.Filter, (page-1)*PageSize, PageSize)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if items == nil {
		items = []models.Recipe{}
	}
	return &RecipePage{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   PageSize,
		TotalPages: TotalPages(total),
	}, nil
}

// GetPublishedBySlug returns the published recipe with all its details,
// or nil when there is none.
func (s *CatalogService) GetPublishedBySlug(ctx context.Context, slug string) (*models.Recipe, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	r, err := s.recipes.GetPublishedBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe %q: %w", slug, err)
	}
	return r, nil
}

// TopRecipes ranks by view count, highest first, ties by id.
func (s *CatalogService) TopRecipes(ctx context.Context, n int, publishedOnly bool) ([]models.Recipe, error) {
	if n <= 0 {
		n = DefaultTopRecipes
	}
	items, err := s.recipes.Top(ctx, n, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("top recipes: %w", err)
	}
	return items, nil
}

// Recent returns the n most recently created recipes of any status.
func (s *CatalogService) Recent(ctx context.Context, n int) ([]models.Recipe, error) {
	items, _, err := s.recipes.Find(ctx, repository.RecipeFilter{Sort: repository.SortNewest}, 0, n)
	if err != nil {
		return nil, fmt.Errorf("recent recipes: %w", err)
	}
	return items, nil
}

// Totals returns the number of recipes and how many of them are published.
func (s *CatalogService) Totals(ctx context.Context) (all, published int64, err error) {
	if all, err = s.recipes.Count(ctx, nil); err != nil {
		return 0, 0, fmt.Errorf("count recipes: %w", err)
	}
	st := models.StatusPublished
	if published, err = s.recipes.Count(ctx, &st); err != nil {
		return 0, 0, fmt.Errorf("count published recipes: %w", err)
	}
	return all, published, nil
}

// Home loads the newest and the most viewed published recipes.
func (s *CatalogService) Home(ctx context.Context) (*HomeFeed, error) {
	feed := &HomeFeed{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		published := models.StatusPublished
		items, _, err := s.recipes.Find(gctx, repository.RecipeFilter{
			Status: &published,
			Sort:   repository.SortNewest,
		}, 0, HomeSectionSize)
		if err != nil {
			return fmt.Errorf("newest recipes: %w", err)
		}
		feed.Newest = items
		return nil
	})
	g.Go(func() error {
		items, err := s.TopRecipes(gctx, HomeSectionSize, true)
		feed.Popular = items
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return feed, nil
}

// Sitemap lists the slugs of every published recipe.
func (s *CatalogService) Sitemap(ctx context.Context) ([]repository.SitemapEntry, error) {
	entries, err := s.recipes.PublishedSitemap(ctx)
	if err != nil {
		return nil, fmt.Errorf("sitemap entries: %w", err)
	}
	return entries, nil
}
