package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/property-listing-api/internal/pkg/origin"
)

// CORS answers preflight requests and decorates responses for origins the
// guard allows. Every response advertises the fixed method and header
// lists; OPTIONS always answers 200.
func CORS(g *origin.Guard) func(http.Handler) http.Handler {
	preflight := cors.Handler(cors.Options{
		AllowOriginFunc:  func(_ *http.Request, o string) bool { return g.Allowed(o) },
		AllowedMethods:   origin.AllowedMethods,
		AllowedHeaders:   origin.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           origin.MaxAgeSeconds,
	})
	methods := strings.Join(origin.AllowedMethods, ", ")
	headers := strings.Join(origin.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		decorated := preflight(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") == "" {
				d := g.Evaluate(r.Header.Get("Origin"))
				for k, v := range d.Header {
					w.Header()[k] = v
				}
				w.WriteHeader(http.StatusOK)
				return
			}
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			decorated.ServeHTTP(w, r)
		})
	}
}
