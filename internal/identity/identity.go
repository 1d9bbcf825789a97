// Package identity provides anonymous per-device identity primitives.
//
// Reports are attributed to a user when the client supplies a user_id; when
// it does not, the anonymous cookie identity set here is used instead.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"time"
)

const (
	// AnonCookieName carries the anonymous device identity.
	AnonCookieName = "yeoul_anon_id"

	anonCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const userIDKey contextKey = iota

var anonIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)

// UserIDFromContext extracts the user ID from the request context. Empty when
// the middleware did not run or ID generation failed.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func generateAnonID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate anonymous id: %w", err)
	}
	return "anon_" + hex.EncodeToString(buf), nil
}

func isValidAnonID(id string) bool {
	return anonIDPattern.MatchString(id)
}

// Middleware assigns each device a stable anonymous identity via cookie and
// stashes it in the request context. Requests proceed even when a fresh ID
// cannot be generated; identity is best-effort.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if c, err := r.Cookie(AnonCookieName); err == nil && isValidAnonID(c.Value) {
				userID = c.Value
			}

			if userID == "" {
				id, err := generateAnonID()
				if err == nil {
					userID = id
					http.SetCookie(w, &http.Cookie{
						Name:     AnonCookieName,
						Value:    id,
						Path:     "/",
						MaxAge:   int(anonCookieMaxAge.Seconds()),
						HttpOnly: true,
						Secure:   !isDev,
						SameSite: http.SameSiteLaxMode,
					})
				}
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
