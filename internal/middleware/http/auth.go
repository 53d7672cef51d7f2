package middleware_http

import (
	"context"
	"net/http"
	"strings"

	"inventory-api/internal/model"
)

type contextKey string

const currentUserKey = contextKey("current_user")

// TokenVerifier turns a bearer token into the user it belongs to.
// Satisfied by *service.AuthService.
type TokenVerifier interface {
	VerifyToken(token string) (*model.UserRef, error)
}

// Auth rejects requests without a valid bearer token and stores the
// authenticated user in the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing or invalid token", http.StatusUnauthorized)
				return
			}

			user, err := verifier.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), currentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the authenticated user, or nil outside Auth.
func CurrentUser(r *http.Request) *model.UserRef {
	if u, ok := r.Context().Value(currentUserKey).(*model.UserRef); ok {
		return u
	}
	return nil
}
