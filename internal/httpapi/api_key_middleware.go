package httpapi

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyMiddleware rejects requests whose `key` query parameter doesn't
// match one of validKeys, comparing in constant time to avoid leaking key
// length/prefix through response timing. A nil or empty validKeys disables
// the check entirely, matching this router's other middlewares' "absent
// config means off" convention.
func APIKeyMiddleware(validKeys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.URL.Query().Get("key")
			if isInvalidAPIKey(key, validKeys) {
				sendError(w, http.StatusUnauthorized, "missing or invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isInvalidAPIKey(key string, validKeys []string) bool {
	if key == "" {
		return true
	}
	for _, validKey := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			return false
		}
	}
	return true
}
