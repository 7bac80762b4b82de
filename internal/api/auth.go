package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAdmin guards the mutating endpoints with a bearer token. An empty
// configured token disables those endpoints entirely rather than leaving
// them open.
func (h *routerHandlers) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			writeError(w, "admin endpoints disabled (no ADMIN_TOKEN configured)", http.StatusForbidden)
			return
		}
		if !tokenMatches(r, h.adminToken) {
			writeError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tokenMatches checks the Authorization header (or ?token= fallback for
// curl convenience) against the configured token in constant time.
func tokenMatches(r *http.Request, want string) bool {
	got := r.URL.Query().Get("token")
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			got = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
