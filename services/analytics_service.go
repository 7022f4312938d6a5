package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yafa-kitchen/recipes/models"
	"github.com/yafa-kitchen/recipes/repository"
)

const (
	SeriesDays = 30
	dateLayout = "2006-01-02"
	day        = 24 * time.Hour

	dashboardTop    = 10
	dashboardRecent = 5
)

type SiteViewCounts struct {
	Last24h int64 `json:"last_24h"`
	Last7d  int64 `json:"last_7d"`
	Last30d int64 `json:"last_30d"`
	Total   int64 `json:"total"`
}

// DailyPoint is the number of site views on one UTC calendar date.
type DailyPoint struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

type Dashboard struct {
	Views            SiteViewCounts  `json:"views"`
	Daily            []DailyPoint    `json:"daily"`
	TotalRecipes     int64           `json:"total_recipes"`
	PublishedRecipes int64           `json:"published_recipes"`
	TopRecipes       []models.Recipe `json:"top_recipes"`
	RecentRecipes    []models.Recipe `json:"recent_recipes"`
}

// AnalyticsService aggregates site view events for the back office.
type AnalyticsService struct {
	events  repository.ViewEventRepository
	catalog *CatalogService
	now     func() time.Time
}

func NewAnalyticsService(events repository.ViewEventRepository, catalog *CatalogService) *AnalyticsService {
	return &AnalyticsService{events: events, catalog: catalog, now: time.Now}
}

// WithClock replaces the time source.
func (a *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	a.now = now
	return a
}

// WindowCounts counts SITE events in the trailing 24h, 7d and 30d and overall.
func (a *AnalyticsService) WindowCounts(ctx context.Context) (SiteViewCounts, error) {
	now := a.now().UTC()
	var counts SiteViewCounts

	windows := []struct {
		dst   *int64
		since *time.Time
	}{
		{&counts.Last24h, ptrTime(now.Add(-day))},
		{&counts.Last7d, ptrTime(now.Add(-7 * day))},
		{&counts.Last30d, ptrTime(now.Add(-30 * day))},
		{&counts.Total, nil},
	}
	for _, w := range windows {
		n, err := a.events.CountSince(ctx, models.ScopeSite, w.since)
		if err != nil {
			return SiteViewCounts{}, fmt.Errorf("count site views: %w", err)
		}
		*w.dst = n
	}
	return counts, nil
}

// DailySeries returns one point per UTC date for today and the 29 days before it.
func (a *AnalyticsService) DailySeries(ctx context.Context) ([]DailyPoint, error) {
	now := a.now().UTC()
	times, err := a.events.TimesSince(ctx, models.ScopeSite, now.Add(-SeriesDays*day))
	if err != nil {
		return nil, fmt.Errorf("load site views: %w", err)
	}
	return BuildDailySeries(now, times, SeriesDays), nil
}

// BuildDailySeries buckets times by UTC date into days points ending at now's date,
// oldest first. Dates without events are zero and times outside the range are ignored.
func BuildDailySeries(now time.Time, times []time.Time, days int) []DailyPoint {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	points := make([]DailyPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i-days+1).Format(dateLayout)
		points[i] = DailyPoint{Date: date}
		index[date] = i
	}
	for _, t := range times {
		if i, ok := index[t.UTC().Format(dateLayout)]; ok {
			points[i].Views++
		}
	}
	return points
}

// Dashboard gathers every back office figure concurrently.
func (a *AnalyticsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.Views, err = a.WindowCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Daily, err = a.DailySeries(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalRecipes, d.PublishedRecipes, err = a.catalog.Totals(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TopRecipes, err = a.catalog.TopRecipes(gctx, dashboardTop, false)
		return err
	})
	g.Go(func() (err error) {
		d.RecentRecipes, err = a.catalog.Recent(gctx, dashboardRecent)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func ptrTime(t time.Time) *time.Time { return &t }
