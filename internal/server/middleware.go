package server

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const ctxKeyUserID ctxKey = iota

// requireAuth verifies the bearer access token and stores the caller's user
// id in the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		const prefix = "Bearer "
		if !strings.HasPrefix(raw, prefix) {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := s.sessions.VerifyAccess(strings.TrimSpace(raw[len(prefix):]))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired access token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUserID, userID)))
	}
}

// userID returns the authenticated caller's id, or 0 when unauthenticated.
func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxKeyUserID).(int64)
	return id
}
