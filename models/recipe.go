package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SlugMaxLen is the width of the recipes.slug column, in characters.
const SlugMaxLen = 191

// Recipe is a published or draft unit of content.
type Recipe struct {
	ID            string                      `gorm:"primaryKey;size:36" json:"id"`
	Title         string                      `gorm:"size:255;not null" json:"title"`
	Slug          string                      `gorm:"size:191;not null;uniqueIndex" json:"slug"`
	Description   string                      `gorm:"type:text;not null" json:"description"`
	ImageURL      string                      `gorm:"size:1024" json:"image_url,omitempty"`
	GalleryImages datatypes.JSONSlice[string] `json:"gallery_images"`
	PrepTime      int                         `gorm:"not null;default:0;index" json:"prep_time"`
	CookTime      int                         `gorm:"not null;default:0" json:"cook_time"`
	Servings      int                         `gorm:"not null;default:1" json:"servings"`
	Difficulty    Difficulty                  `gorm:"size:16;not null;index" json:"difficulty"`
	Kashrut       Kashrut                     `gorm:"size:16;not null;index" json:"kashrut"`
	Status        RecipeStatus                `gorm:"size:16;not null;default:'DRAFT';index" json:"status"`
	Tips          string                      `gorm:"type:text" json:"tips,omitempty"`
	Allergens     datatypes.JSONSlice[string] `json:"allergens"`
	VideoURL      string                      `gorm:"size:1024" json:"video_url,omitempty"`
	ViewCount     int64                       `gorm:"not null;default:0;index" json:"view_count"`
	CategoryID    *string                     `gorm:"size:36;index" json:"category_id"`
	Category      *Category                   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
	Ingredients   []Ingredient                `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"ingredients,omitempty"`
	Steps         []Step                      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"steps,omitempty"`
	Tags          []Tag                       `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE;" json:"tags,omitempty"`
	CreatedAt     time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// TotalTime is preparation plus cooking minutes.
func (r *Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// BeforeCreate assigns a UUID when the caller did not.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Ingredient is one ordered line of a recipe's ingredient list.
type Ingredient struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	RecipeID string `gorm:"size:36;not null;index" json:"recipe_id"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Amount   string `gorm:"size:64;not null" json:"amount"`
	Unit     string `gorm:"size:64;not null" json:"unit"`
	Notes    string `gorm:"size:255" json:"notes,omitempty"`
	Order    int    `gorm:"column:position;not null" json:"order"`
}

// Step is one ordered preparation step.
type Step struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	RecipeID    string `gorm:"size:36;not null;index" json:"recipe_id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Time        *int   `json:"time,omitempty"`
	ImageURL    string `gorm:"size:1024" json:"image_url,omitempty"`
	Order       int    `gorm:"column:position;not null" json:"order"`
}

// Tag is a free-form label shared between recipes.
type Tag struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"size:64;not null;uniqueIndex" json:"name"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
