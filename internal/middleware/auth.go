package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/observability"
)

type tokenKey struct{}

// Auth lifts the session bearer token into the request context. The token
// comes from the named cookie, falling back to the Authorization header.
// Auth never rejects; see RequireToken.
func Auth(cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r, cookieName); token != "" {
				r = r.WithContext(WithToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireToken answers 401 for requests that reached it without a token.
func RequireToken(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Token(r.Context()) == "" {
			errors.WriteError(w, logger, errors.Unauthorized("Sign in to view analytics"), observability.GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func Token(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey{}).(string); ok {
		return token
	}
	return ""
}

func extractToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
