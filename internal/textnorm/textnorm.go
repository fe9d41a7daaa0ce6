// Package textnorm holds the whitespace and case folding used to compare content.
package textnorm

import "strings"

// Collapse trims s and replaces every run of whitespace with a single space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold collapses whitespace and lower-cases s.
func Fold(s string) string {
	return strings.ToLower(Collapse(s))
}
