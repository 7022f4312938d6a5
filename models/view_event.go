package models

import "time"

// ViewEvent is an immutable "viewer saw subject" fact. RecipeID is nil for SITE scope.
// Events are not tied to the recipe lifecycle and survive recipe deletion.
type ViewEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Scope     ViewScope `gorm:"size:16;not null;index:idx_view_dedup,priority:1;index:idx_view_scope_time,priority:1" json:"scope"`
	RecipeID  *string   `gorm:"size:36;index:idx_view_dedup,priority:2" json:"recipe_id"`
	ViewerKey string    `gorm:"size:128;not null;index:idx_view_dedup,priority:3" json:"viewer_key"`
	CreatedAt time.Time `gorm:"not null;index:idx_view_dedup,priority:4;index:idx_view_scope_time,priority:2" json:"created_at"`
}
