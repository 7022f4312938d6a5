package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yafa-kitchen/recipes/metrics"
	"github.com/yafa-kitchen/recipes/models"
	"github.com/yafa-kitchen/recipes/repository"
)

const (
	DefaultDedupWindow  = 24 * time.Hour
	defaultAsyncTimeout = 5 * time.Second
)

// ViewRecorder appends view events at most once per viewer, subject and dedup window.
//
// The window check and the insert are separate statements. Concurrent duplicates
// inside this process are collapsed; across processes a duplicate can slip through
// when two requests race inside the same instant.
type ViewRecorder struct {
	events       repository.ViewEventRepository
	window       time.Duration
	asyncTimeout time.Duration
	now          func() time.Time
	log          *zap.Logger

	flights singleflight.Group
	wg      sync.WaitGroup
}

type RecorderOption func(*ViewRecorder)

func WithDedupWindow(d time.Duration) RecorderOption {
	return func(v *ViewRecorder) {
		if d > 0 {
			v.window = d
		}
	}
}

func WithAsyncTimeout(d time.Duration) RecorderOption {
	return func(v *ViewRecorder) {
		if d > 0 {
			v.asyncTimeout = d
		}
	}
}

func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(v *ViewRecorder) { v.now = now }
}

func WithRecorderLogger(l *zap.Logger) RecorderOption {
	return func(v *ViewRecorder) {
		if l != nil {
			v.log = l
		}
	}
}

func NewViewRecorder(events repository.ViewEventRepository, opts ...RecorderOption) *ViewRecorder {
	v := &ViewRecorder{
		events:       events,
		window:       DefaultDedupWindow,
		asyncTimeout: defaultAsyncTimeout,
		now:          time.Now,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// RecordView stores a view unless the same viewer already viewed the same subject
// inside the dedup window. It returns true when a new event was written.
// SITE views ignore subjectID. RECIPE views of a missing recipe return ErrRecipeNotFound.
func (v *ViewRecorder) RecordView(ctx context.Context, scope models.ViewScope, subjectID *string, viewerKey string) (bool, error) {
	if !scope.Valid() {
		return false, ErrInvalidScope
	}
	if viewerKey == "" {
		return false, ErrMissingViewer
	}
	switch scope {
	case models.ScopeSite:
		subjectID = nil
	case models.ScopeRecipe:
		if subjectID == nil || strings.TrimSpace(*subjectID) == "" {
			return false, ErrMissingTarget
		}
	}

	res, err, _ := v.flights.Do(flightKey(scope, subjectID, viewerKey), func() (interface{}, error) {
		return v.record(ctx, scope, subjectID, viewerKey)
	})

	outcome := metrics.OutcomeRecorded
	switch {
	case errors.Is(err, ErrRecipeNotFound):
		outcome = metrics.OutcomeNotFound
	case err != nil:
		outcome = metrics.OutcomeError
	case !res.(bool):
		outcome = metrics.OutcomeDuplicate
	}
	metrics.RecordViewOutcome(string(scope), outcome)

	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

// flightKey identifies one (scope, subject, viewer) triple. NUL cannot occur in
// a header, cookie or UUID, so distinct triples never share a key.
func flightKey(scope models.ViewScope, subjectID *string, viewerKey string) string {
	subject := ""
	if subjectID != nil {
		subject = *subjectID
	}
	return string(scope) + "\x00" + subject + "\x00" + viewerKey
}

func (v *ViewRecorder) record(ctx context.Context, scope models.ViewScope, subjectID *string, viewerKey string) (bool, error) {
	now := v.now().UTC()

	seen, err := v.events.ExistsSince(ctx, scope, subjectID, viewerKey, now.Add(-v.window))
	if err != nil {
		return false, fmt.Errorf("check recent view: %w", err)
	}
	if seen {
		return false, nil
	}

	event := &models.ViewEvent{
		Scope:     scope,
		RecipeID:  subjectID,
		ViewerKey: viewerKey,
		CreatedAt: now,
	}
	if err := v.events.Insert(ctx, event); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrRecipeNotFound
		}
		return false, fmt.Errorf("insert view event: %w", err)
	}
	return true, nil
}

// RecordAsync records the view in the background with its own deadline.
// Failures are logged and counted, never returned.
func (v *ViewRecorder) RecordAsync(scope models.ViewScope, subjectID *string, viewerKey string) {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				metrics.RecordViewOutcome(string(scope), metrics.OutcomePanic)
				v.log.Error("view recording panicked", zap.String("scope", string(scope)), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), v.asyncTimeout)
		defer cancel()

		if _, err := v.RecordView(ctx, scope, subjectID, viewerKey); err != nil {
			fields := []zap.Field{zap.String("scope", string(scope)), zap.Error(err)}
			if subjectID != nil {
				fields = append(fields, zap.String("recipe_id", *subjectID))
			}
			v.log.Warn("view recording failed", fields...)
		}
	}()
}

// Wait blocks until every RecordAsync call has finished.
func (v *ViewRecorder) Wait() {
	v.wg.Wait()
}
