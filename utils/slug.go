package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^\x{0590}-\x{05FF}a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
	slugPattern = regexp.MustCompile(`^[\x{0590}-\x{05FF}a-z0-9]+(?:-[\x{0590}-\x{05FF}a-z0-9]+)*$`)
)

// Slugify turns a title into a URL path segment. Hebrew letters are kept as is.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// TruncateSlug cuts s to at most n characters on a rune boundary and drops
// any dash left dangling at the end.
func TruncateSlug(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimRight(string([]rune(s)[:n]), "-")
}

// IsSlug reports whether s is already in Slugify's output form.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}
