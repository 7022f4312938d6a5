package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yafa-kitchen/recipes/models"
	"github.com/yafa-kitchen/recipes/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// memStore backs both fake repositories so recipe counters and events stay consistent.
type memStore struct {
	mu         sync.Mutex
	recipes    map[string]*models.Recipe
	categories map[string]*models.Category
	events     []models.ViewEvent
	tagLinks   map[string][]string

	existsCalls int
	insertErr   error
	// writeErr is returned by recipe and category writes
	writeErr error
}

func newStore() *memStore {
	return &memStore{
		recipes:    map[string]*models.Recipe{},
		categories: map[string]*models.Category{},
		tagLinks:   map[string][]string{},
	}
}

func (s *memStore) addRecipe(r models.Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := r
	s.recipes[r.ID] = &cp
}

func (s *memStore) viewCount(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recipes[id].ViewCount
}

func (s *memStore) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type fakeEvents struct{ s *memStore }

func (f fakeEvents) ExistsSince(_ context.Context, scope models.ViewScope, recipeID *string, viewerKey string, since time.Time) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.existsCalls++
	for _, e := range f.s.events {
		if e.Scope != scope || e.ViewerKey != viewerKey || e.CreatedAt.Before(since) {
			continue
		}
		if (recipeID == nil) != (e.RecipeID == nil) {
			continue
		}
		if recipeID != nil && *recipeID != *e.RecipeID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (f fakeEvents) Insert(_ context.Context, e *models.ViewEvent) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.insertErr != nil {
		return f.s.insertErr
	}
	if e.Scope == models.ScopeRecipe {
		r, ok := f.s.recipes[*e.RecipeID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		r.ViewCount++
	}
	e.ID = uint(len(f.s.events) + 1)
	f.s.events = append(f.s.events, *e)
	return nil
}

func (f fakeEvents) CountSince(_ context.Context, scope models.ViewScope, since *time.Time) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, e := range f.s.events {
		if e.Scope == scope && (since == nil || !e.CreatedAt.Before(*since)) {
			n++
		}
	}
	return n, nil
}

func (f fakeEvents) TimesSince(_ context.Context, scope models.ViewScope, since time.Time) ([]time.Time, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []time.Time
	for _, e := range f.s.events {
		if e.Scope == scope && !e.CreatedAt.Before(since) {
			out = append(out, e.CreatedAt)
		}
	}
	return out, nil
}

type fakeRecipes struct{ s *memStore }

func (f fakeRecipes) matching(flt repository.RecipeFilter) []models.Recipe {
	var out []models.Recipe
	term := strings.ToLower(strings.TrimSpace(flt.Search))
	for _, r := range f.s.recipes {
		if flt.Status != nil && r.Status != *flt.Status {
			continue
		}
		if flt.Difficulty != nil && r.Difficulty != *flt.Difficulty {
			continue
		}
		if flt.Kashrut != nil && r.Kashrut != *flt.Kashrut {
			continue
		}
		if term != "" {
			second := r.Description
			if flt.SearchIn == repository.SearchTitleSlug {
				second = r.Slug
			}
			if !strings.Contains(strings.ToLower(r.Title), term) && !strings.Contains(strings.ToLower(second), term) {
				continue
			}
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch flt.Sort {
		case repository.SortPopular:
			if a.ViewCount != b.ViewCount {
				return a.ViewCount > b.ViewCount
			}
		case repository.SortFastest:
			if a.PrepTime != b.PrepTime {
				return a.PrepTime < b.PrepTime
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
	return out
}

func (f fakeRecipes) Find(_ context.Context, flt repository.RecipeFilter, offset, limit int) ([]models.Recipe, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	all := f.matching(flt)
	total := int64(len(all))
	if offset >= len(all) {
		return []models.Recipe{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f fakeRecipes) Top(ctx context.Context, n int, publishedOnly bool) ([]models.Recipe, error) {
	flt := repository.RecipeFilter{Sort: repository.SortPopular}
	if publishedOnly {
		st := models.StatusPublished
		flt.Status = &st
	}
	items, _, err := f.Find(ctx, flt, 0, n)
	return items, err
}

func (f fakeRecipes) Count(ctx context.Context, status *models.RecipeStatus) (int64, error) {
	_, total, err := f.Find(ctx, repository.RecipeFilter{Status: status}, 0, 0)
	return total, err
}

func (f fakeRecipes) GetByID(_ context.Context, id string) (*models.Recipe, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.recipes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	for _, name := range f.s.tagLinks[id] {
		cp.Tags = append(cp.Tags, models.Tag{Name: name})
	}
	return &cp, nil
}

func (f fakeRecipes) GetPublishedBySlug(_ context.Context, slug string) (*models.Recipe, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, r := range f.s.recipes {
		if r.Slug == slug && r.Status == models.StatusPublished {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeRecipes) SlugExists(_ context.Context, slug, excludeID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, r := range f.s.recipes {
		if r.Slug == slug && r.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeRecipes) Create(_ context.Context, r *models.Recipe, tags []string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.writeErr != nil {
		return f.s.writeErr
	}
	if r.ID == "" {
		r.ID = "r-" + r.Slug
	}
	cp := *r
	f.s.recipes[r.ID] = &cp
	f.s.tagLinks[r.ID] = tags
	return nil
}

func (f fakeRecipes) Replace(_ context.Context, r *models.Recipe, tags []string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.writeErr != nil {
		return f.s.writeErr
	}
	old, ok := f.s.recipes[r.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *r
	cp.ViewCount = old.ViewCount
	cp.CreatedAt = old.CreatedAt
	f.s.recipes[r.ID] = &cp
	f.s.tagLinks[r.ID] = tags
	return nil
}

func (f fakeRecipes) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.recipes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.s.recipes, id)
	delete(f.s.tagLinks, id)
	return nil
}

func (f fakeRecipes) PublishedSitemap(_ context.Context) ([]repository.SitemapEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []repository.SitemapEntry
	for _, r := range f.s.recipes {
		if r.Status == models.StatusPublished {
			out = append(out, repository.SitemapEntry{Slug: r.Slug, UpdatedAt: r.UpdatedAt})
		}
	}
	return out, nil
}

type fakeCategories struct{ s *memStore }

func (f fakeCategories) List(_ context.Context) ([]models.Category, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.Category{}
	for _, c := range f.s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeCategories) GetByID(_ context.Context, id string) (*models.Category, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeCategories) Conflicts(_ context.Context, name, slug, excludeID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, c := range f.s.categories {
		if c.ID != excludeID && (c.Name == name || c.Slug == slug) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeCategories) Create(_ context.Context, c *models.Category) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.writeErr != nil {
		return f.s.writeErr
	}
	if c.ID == "" {
		c.ID = "c-" + c.Slug
	}
	cp := *c
	f.s.categories[c.ID] = &cp
	return nil
}

func (f fakeCategories) Update(_ context.Context, c *models.Category) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.writeErr != nil {
		return f.s.writeErr
	}
	old, ok := f.s.categories[c.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	old.Name, old.Slug = c.Name, c.Slug
	return nil
}

func (f fakeCategories) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.categories[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.s.categories, id)
	for _, r := range f.s.recipes {
		if r.CategoryID != nil && *r.CategoryID == id {
			r.CategoryID = nil
		}
	}
	return nil
}
