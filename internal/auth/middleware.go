package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// TokenCookieName is the cookie carrying the access token for browser clients.
const TokenCookieName = "token"

// Authenticator turns a presented bearer token into an authenticated username.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

type contextKey string

// UsernameKey is the context key for the authenticated username.
const UsernameKey = contextKey("username")

// WithUsername returns a copy of ctx carrying username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, UsernameKey, username)
}

// UsernameFromContext returns the authenticated username stored by JWTMiddleware.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok && username != ""
}

// JWTMiddleware creates a middleware for protecting routes.
func JWTMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				writeUnauthorized(w, "Not authenticated", "")
				return
			}

			username, err := authn.Authenticate(tokenStr)
			if err != nil {
				if errors.Is(err, ErrExpiredToken) {
					writeUnauthorized(w, "Token expired", `error="invalid_token", error_description="expired"`)
				} else {
					writeUnauthorized(w, "Invalid token", `error="invalid_token"`)
				}
				return
			}

			log.Debug().Str("username", username).Str("path", r.URL.Path).Msg("Authenticated request")
			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
		})
	}
}

// TokenFromRequest reads the bearer token from the Authorization header,
// falling back to the token cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, detail, challenge string) {
	value := "Bearer"
	if challenge != "" {
		value += " " + challenge
	}
	w.Header().Set("WWW-Authenticate", value)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
