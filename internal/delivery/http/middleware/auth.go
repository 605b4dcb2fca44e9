package middleware

import (
	"net/http"
	"strings"

	"github.com/Pesokrava/perfume_storefront/internal/delivery/http/response"
	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// SignInPrompt is returned when an action needs a signed-in user
const SignInPrompt = "Sign in to leave a review"

// TokenParser turns a bearer token into an identity
type TokenParser interface {
	Parse(token string) (domain.Identity, error)
}

// Auth attaches the bearer token's identity to the request context.
// Requests without a valid token continue anonymously.
func Auth(parser TokenParser, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := parser.Parse(strings.TrimSpace(token))
			if err != nil {
				log.Debugf("Ignoring bearer token: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireIdentity rejects anonymous requests with 401
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFrom(r.Context()).Authenticated() {
			response.Error(w, http.StatusUnauthorized, SignInPrompt)
			return
		}
		next.ServeHTTP(w, r)
	})
}
