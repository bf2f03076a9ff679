package helpers

import (
	"strings"

	"jjsdev/internal/shared/util"
)

func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[]{}")
}

// IsPathOverlap reports whether one cleaned path contains the other.
func IsPathOverlap(a, b string) bool {
	return util.HasPathPrefix(a, b) || util.HasPathPrefix(b, a)
}
