// Package middleware provides HTTP middleware for the debate API.
package middleware

import (
	"net/http"
	"strings"
)

// CORS returns middleware that handles CORS headers. Origins may use a
// leading wildcard subdomain pattern ("https://*.vercel.app") to match
// preview deployments.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && originAllowed(origin, allowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				// Credentials only for exact-match origins. A wildcard-echoed
				// origin combined with Allow-Credentials enables CSRF.
				for _, o := range allowedOrigins {
					if o == origin {
						w.Header().Set("Access-Control-Allow-Credentials", "true")
						break
					}
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
		// "https://*.vercel.app" matches any https vercel.app subdomain.
		if scheme, host, ok := strings.Cut(o, "://"); ok && strings.HasPrefix(host, "*.") {
			suffix := strings.TrimPrefix(host, "*")
			if strings.HasPrefix(origin, scheme+"://") && strings.HasSuffix(origin, suffix) {
				return true
			}
		}
	}
	return false
}
