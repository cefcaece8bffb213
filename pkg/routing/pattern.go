// Package routing converts proxy route patterns to net/http ServeMux
// patterns.
package routing

import (
	"fmt"
	"net/http"
	"strings"
)

// ConvertToServeMuxPattern converts a path pattern to ServeMux format.
// ":param" segments become "{param}" and a trailing "*" becomes a
// "{path...}" wildcard.
func ConvertToServeMuxPattern(pattern string) string {
	if strings.Contains(pattern, ":") {
		parts := strings.Split(pattern, "/")
		for i, part := range parts {
			if strings.HasPrefix(part, ":") {
				parts[i] = "{" + part[1:] + "}"
			}
		}
		pattern = strings.Join(parts, "/")
	}

	if strings.HasSuffix(pattern, "/*") {
		pattern = strings.TrimSuffix(pattern, "/*") + "/{path...}"
	} else if strings.HasSuffix(pattern, "*") {
		pattern = strings.TrimSuffix(pattern, "*") + "{path...}"
	}

	return pattern
}

// Handle registers handler on mux under the converted form of pattern.
// Invalid or conflicting patterns are reported as errors instead of the
// panic ServeMux raises for them.
func Handle(mux *http.ServeMux, pattern string, handler http.Handler) (err error) {
	muxPattern := ConvertToServeMuxPattern(pattern)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("route %q (%s): %v", pattern, muxPattern, r)
		}
	}()
	mux.Handle(muxPattern, handler)
	return nil
}
