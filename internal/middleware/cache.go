package middleware

import (
	"net/http"
	"strings"
)

// NoStore marks responses uncacheable. Fingerprinted front-end bundles under
// /assets/ are left to the file server's own caching.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/assets/") {
			SetNoStore(w.Header())
		}
		next.ServeHTTP(w, r)
	})
}

// SetNoStore writes the no-cache header set onto h.
func SetNoStore(h http.Header) {
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
