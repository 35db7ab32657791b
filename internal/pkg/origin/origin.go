// Package origin decides which browser origins may call the API.
package origin

import (
	"net/http"
	"strconv"
	"strings"
)

// Fixed lists advertised on every response.
var (
	AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	AllowedHeaders = []string{"Content-Type", "Authorization"}
)

// MaxAgeSeconds is how long browsers may cache a preflight result.
const MaxAgeSeconds = 86400

// Guard matches origins against an exact allow-list and a set of trusted
// host suffixes such as ".leadconnectorhq.com".
type Guard struct {
	exact    map[string]struct{}
	suffixes []string
}

func NewGuard(allowed, suffixes []string) *Guard {
	g := &Guard{exact: make(map[string]struct{}, len(allowed))}
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o != "" {
			g.exact[o] = struct{}{}
		}
	}
	for _, s := range suffixes {
		s = strings.TrimSpace(s)
		if s != "" {
			g.suffixes = append(g.suffixes, s)
		}
	}
	return g
}

// Allowed reports whether origin may receive credentialed CORS responses.
func (g *Guard) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if _, ok := g.exact[origin]; ok {
		return true
	}
	for _, s := range g.suffixes {
		if strings.HasSuffix(origin, s) {
			return true
		}
	}
	return false
}

// Decision is the outcome for a single request origin.
type Decision struct {
	Allowed bool
	Header  http.Header
}

// Evaluate returns the CORS headers to emit for origin. Vary and the fixed
// method and header lists are always present; the reflected origin and
// credentials flag only when allowed.
func (g *Guard) Evaluate(origin string) Decision {
	h := http.Header{}
	h.Set("Vary", "Origin")
	h.Set("Access-Control-Allow-Methods", strings.Join(AllowedMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(AllowedHeaders, ", "))
	allowed := g.Allowed(origin)
	if allowed {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Max-Age", strconv.Itoa(MaxAgeSeconds))
	}
	return Decision{Allowed: allowed, Header: h}
}
