package models

import "strings"

// Difficulty is the preparation difficulty of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Kashrut is the dietary classification of a recipe.
type Kashrut string

const (
	KashrutKosher    Kashrut = "KOSHER"
	KashrutNotKosher Kashrut = "NOT_KOSHER"
	KashrutDairy     Kashrut = "DAIRY"
	KashrutMeat      Kashrut = "MEAT"
	KashrutPareve    Kashrut = "PAREVE"
)

// RecipeStatus controls public visibility.
type RecipeStatus string

const (
	StatusDraft     RecipeStatus = "DRAFT"
	StatusPublished RecipeStatus = "PUBLISHED"
)

// ViewScope tells whether a view event is about the whole site or a single recipe.
type ViewScope string

const (
	ScopeSite   ViewScope = "SITE"
	ScopeRecipe ViewScope = "RECIPE"
)

var (
	difficulties = map[string]Difficulty{
		"EASY":   DifficultyEasy,
		"MEDIUM": DifficultyMedium,
		"HARD":   DifficultyHard,
	}
	kashruts = map[string]Kashrut{
		"KOSHER":     KashrutKosher,
		"NOT_KOSHER": KashrutNotKosher,
		"DAIRY":      KashrutDairy,
		"MEAT":       KashrutMeat,
		"PAREVE":     KashrutPareve,
	}
	statuses = map[string]RecipeStatus{
		"DRAFT":     StatusDraft,
		"PUBLISHED": StatusPublished,
	}
)

// ParseDifficulty maps s onto a known difficulty. Matching is exact after trimming.
func ParseDifficulty(s string) (Difficulty, bool) {
	d, ok := difficulties[strings.TrimSpace(s)]
	return d, ok
}

// ParseKashrut maps s onto a known kashrut classification.
func ParseKashrut(s string) (Kashrut, bool) {
	k, ok := kashruts[strings.TrimSpace(s)]
	return k, ok
}

// ParseStatus maps s onto a known recipe status.
func ParseStatus(s string) (RecipeStatus, bool) {
	st, ok := statuses[strings.TrimSpace(s)]
	return st, ok
}

// Valid reports whether the scope is one of the known scopes.
func (s ViewScope) Valid() bool {
	return s == ScopeSite || s == ScopeRecipe
}
