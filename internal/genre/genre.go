// Package genre holds the closed set of video genres and the style patterns
// attached to them.
package genre

import "strings"

// NotFound is returned by the classifier when a title fits no known genre.
const NotFound = "genre is not found try something else"

var known = []string{
	"history",
	"news",
	"sports",
	"selfimprovement",
	"language",
	"personalcare",
	"vlog",
	"moviereview",
	"review",
	"programming",
	"education",
	"fitness",
	"cooking",
	"finance",
}

// Known returns the predefined genres in prompt order.
func Known() []string {
	return append([]string(nil), known...)
}

// IsKnown reports whether g is one of the predefined genres.
func IsKnown(g string) bool {
	for _, k := range known {
		if k == g {
			return true
		}
	}
	return false
}

// Normalize maps raw classifier output to a known genre or NotFound.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "\"'`*., \t\n")
	if IsKnown(s) {
		return s
	}
	return NotFound
}
