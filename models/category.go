package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategorySlugMaxLen is the width of the categories.slug column, in characters.
const CategorySlugMaxLen = 128

// Category groups recipes. Recipes reference it weakly: deleting a category leaves them uncategorised.
type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Slug      string    `gorm:"size:128;not null;uniqueIndex" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
