package gateway

import (
	"path"
	"strings"
)

// RouteClass says whether a page needs a session
type RouteClass int

const (
	// Protected is the zero value: anything not explicitly public needs a session.
	Protected RouteClass = iota
	Public
)

func (c RouteClass) String() string {
	if c == Public {
		return "public"
	}
	return "protected"
}

// excludedSegments are never evaluated by the guard: API routes, build
// assets and the favicon. They match whole path segments.
var excludedSegments = []string{
	"/api",
	"/_next/static",
	"/favicon.ico",
}

// excludedRawPrefixes match any path starting with them. The image
// optimizer's URLs vary after the prefix.
var excludedRawPrefixes = []string{
	"/_next/image",
}

// RouteTable classifies paths. It is built once at startup and only read
// afterwards.
type RouteTable struct {
	public map[string]struct{}
}

// NewRouteTable builds a table with the given exact public paths
func NewRouteTable(publicPaths []string) *RouteTable {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}
	return &RouteTable{public: public}
}

// Classify maps a path to exactly one class. Matching is exact, so
// "/login/" or "/login/extra" are protected.
func (t *RouteTable) Classify(path string) RouteClass {
	if _, ok := t.public[path]; ok {
		return Public
	}
	return Protected
}

// Excluded reports whether path bypasses the guard entirely:
// "/api/tasks" is excluded, "/apiary" is not.
func (t *RouteTable) Excluded(path string) bool {
	for _, prefix := range excludedSegments {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	for _, prefix := range excludedRawPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// CleanPath resolves dot segments and duplicate slashes so the guard and the
// frontend see the same page. A trailing slash is kept; "/login/" stays
// distinct from "/login".
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean("/" + p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}
