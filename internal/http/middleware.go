package http

import (
	"context"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "user_id"

// AuthMiddleware attaches the opaque caller identity issued by the upstream
// authentication collaborator. Token verification happens there; by the time
// a request reaches this process the identity travels in X-User-ID.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}
