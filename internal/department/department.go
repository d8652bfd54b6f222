// Package department holds the visibility boundary rule: two users share
// scope iff their department fields match exactly (case-sensitive).
package department

func Same(a, b string) bool {
	return a == b
}
