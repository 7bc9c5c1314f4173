// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/geoboard/internal/logging"
)

type contextKey string

// ClaimsContextKey is the request context key holding *Claims.
const ClaimsContextKey contextKey = "claims"

// ErrMissingToken is returned when a request carries no token at all.
var ErrMissingToken = errors.New("auth: missing token")

// ErrorHandler writes the response for a request that failed authentication.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates requests with JWT bearer tokens.
type Middleware struct {
	jwtManager *JWTManager
	onError    ErrorHandler
}

// NewMiddleware creates the authentication middleware. onError renders 401
// responses; nil falls back to http.Error.
func NewMiddleware(jwtManager *JWTManager, onError ErrorHandler) *Middleware {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
		}
	}
	return &Middleware{jwtManager: jwtManager, onError: onError}
}

// Authenticate rejects requests without a valid token and stores the claims
// in the request context otherwise.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.Verify(r)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
			m.onError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// Verify extracts and validates the request's token.
func (m *Middleware) Verify(r *http.Request) (*Claims, error) {
	token, err := ExtractToken(r)
	if err != nil {
		return nil, err
	}
	return m.jwtManager.ValidateToken(token)
}

// ExtractToken reads the token from, in order: the Authorization bearer
// header, the "token" cookie, and the "token" query parameter. The query
// form exists for WebSocket upgrades, where browsers cannot set headers.
func ExtractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", errors.New("auth: invalid authorization header")
		}
		return strings.TrimSpace(token), nil
	}

	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	return "", ErrMissingToken
}

// ContextWithClaims returns ctx carrying claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}
