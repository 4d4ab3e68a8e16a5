package dfs

import "strings"

// NormalizePath cleans a path reported by a provider listing: duplicate
// leading separators are collapsed and a trailing separator is dropped
// unless the path is the root.
func NormalizePath(p string) string {
	for strings.HasPrefix(p, "//") {
		p = p[1:]
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}
