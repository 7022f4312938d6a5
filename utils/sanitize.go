package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// PlainText removes all markup and surrounding whitespace. Used for single line fields.
func PlainText(input string) string {
	return strings.TrimSpace(stripper.Sanitize(input))
}
