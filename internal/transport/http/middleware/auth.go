package middleware

import (
	"context"
	"net/http"

	"github.com/go-socfony/internal/domain"
	pkgtoken "github.com/go-socfony/internal/pkg/token"
)

type contextKey string

const tokenKey contextKey = "access_token"

// CredentialVerifier resolves a bearer JWT to its live access-token row.
type CredentialVerifier interface {
	Verify(ctx context.Context, bearer string, includeUser bool) (*domain.AccessToken, error)
}

// Auth returns middleware that rejects requests without a valid, unrevoked
// Bearer token and injects the access token into context.
func Auth(verifier CredentialVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer, ok := pkgtoken.FromAuthorization(r.Header.Get("Authorization"))
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			t, err := verifier.Verify(r.Context(), bearer, false)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), t)))
		})
	}
}

// OptionalAuth injects the access token when a valid one is presented and
// otherwise serves the request anonymously.
func OptionalAuth(verifier CredentialVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearer, ok := pkgtoken.FromAuthorization(r.Header.Get("Authorization")); ok {
				if t, err := verifier.Verify(r.Context(), bearer, false); err == nil {
					r = r.WithContext(WithToken(r.Context(), t))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithToken(ctx context.Context, t *domain.AccessToken) context.Context {
	return context.WithValue(ctx, tokenKey, t)
}

// TokenFromContext extracts the authenticated access token from the request context.
func TokenFromContext(ctx context.Context) (*domain.AccessToken, bool) {
	t, ok := ctx.Value(tokenKey).(*domain.AccessToken)
	return t, ok
}

// ViewerID returns the authenticated user id, or "" for anonymous requests.
func ViewerID(ctx context.Context) string {
	if t, ok := TokenFromContext(ctx); ok {
		return t.UserID
	}
	return ""
}
