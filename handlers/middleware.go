package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskfuchs/server/database"
	"github.com/taskfuchs/server/services"
)

type contextKey string

const userContextKey contextKey = "user"

type AuthMiddleware struct {
	authService *services.AuthService
	dataService *database.DataService
}

func NewAuthMiddleware(authService *services.AuthService, dataService *database.DataService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		dataService: dataService,
	}
}

// Auth verifies the bearer token, re-checks that the account still exists,
// and attaches the user to the request context.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "No token provided")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := m.authService.VerifyJWT(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		// The token may outlive the account; make sure the user still exists.
		user, err := m.dataService.GetUser(claims.UserID)
		if err == database.ErrNotFound {
			respondError(w, http.StatusUnauthorized, "User not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Authentication failed")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Admin gates a route on the authenticated user's admin flag. Must run
// after Auth.
func (m *AuthMiddleware) Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if !user.IsAdmin {
			respondError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFrom(r *http.Request) (*database.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*database.User)
	return user, ok
}
