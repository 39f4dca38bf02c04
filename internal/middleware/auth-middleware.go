package middleware

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/saparbayev-azizbek-12/chat-app/internal/auth"
	"github.com/saparbayev-azizbek-12/chat-app/internal/models"
	"github.com/saparbayev-azizbek-12/chat-app/internal/repository"
)

type contextKey string

const userKey contextKey = "user"

func getIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		return strings.Split(forwarded, ",")[0]
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
		return host
	}
	return host
}

// UserFrom returns the authenticated user stored by Authenticate, or nil.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// WithUser attaches an authenticated user to the context the way
// Authenticate does.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func Authenticate(repo repository.UserRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			currentIP := getIP(r)

			cookie, err := r.Cookie("access_token")
			if err != nil {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ValidateToken(cookie.Value)
			if err != nil {
				log.Printf("[AUTH] Invalid token from %s: %v", currentIP, err)
				http.Error(w, "Session expired or invalid", http.StatusUnauthorized)
				return
			}

			user, err := repo.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					log.Printf("[AUTH] Token valid but user no longer exists: %s", claims.UserID)
					http.Error(w, "User account not found", http.StatusUnauthorized)
					return
				}
				log.Printf("[ERROR] Middleware DB lookup failed: %v", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
