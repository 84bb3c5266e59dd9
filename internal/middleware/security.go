package middleware

import "net/http"

const contentSecurityPolicy = "default-src 'self'; img-src 'self' https://images.unsplash.com; style-src 'self' 'unsafe-inline'"

// SecureHeaders sets the security header set on every response. Inline styles
// are allowed for the self-contained HTML reports. hsts adds
// Strict-Transport-Security and belongs behind TLS only.
func SecureHeaders(hsts bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
