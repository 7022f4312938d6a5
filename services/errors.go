package services

import "errors"

var (
	ErrRecipeNotFound   = errors.New("recipe not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrSlugTaken        = errors.New("slug already in use")
	ErrCategoryExists   = errors.New("category name or slug already in use")

	ErrInvalidScope  = errors.New("unknown view scope")
	ErrMissingTarget = errors.New("recipe scope requires a recipe id")
	ErrMissingViewer = errors.New("viewer key is required")

	ErrInvalidInput = errors.New("invalid input")
)
