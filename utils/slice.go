package utils

import "strings"

// CleanStrings trims every entry and drops blanks and repeats, keeping first-seen order.
func CleanStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := []string{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
