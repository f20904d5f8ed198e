package httpx

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

const (
	HeaderAPIKey = "X-Admin-API-Key"
	HeaderActor  = "X-Admin-Actor"
)

// APIKeyMiddleware admits requests carrying the configured admin API key.
// An empty key locks the API entirely.
func APIKeyMiddleware(key string) Middleware {
	want := []byte(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(HeaderAPIKey))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				slogx.FromContext(r.Context()).Warn("admin api key rejected")
				WriteError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid admin API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorMiddleware reads the acting operator from X-Admin-Actor and stores it
// in the request context. Mutating requests must name an actor.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(HeaderActor))
		if actor == "" {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				WriteError(w, http.StatusBadRequest, "invalid_request", HeaderActor+" header is required")
				return
			}
		}
		if actor != "" {
			r = r.WithContext(slogx.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
