// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// CreatorKey is the context key for the authenticated creator id.
const CreatorKey contextKey = "creator"

// Claims is the bearer token payload issued by the identity service.
type Claims struct {
	CreatorID string `json:"uid"`
	TokenType string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// RequireCreator verifies an HS256 bearer token and stores its uid claim
// in the request context. Requests without a valid access token get 401.
func RequireCreator(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims := &Claims{}
			_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return secret, nil
			})
			if err != nil || claims.CreatorID == "" || (claims.TokenType != "" && claims.TokenType != "access") {
				slog.Debug("bearer token rejected", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCreator(r.Context(), claims.CreatorID)))
		})
	}
}

// bearerToken reads the token from the Authorization header. Browsers
// cannot set headers on a websocket handshake, so the access_token query
// parameter is accepted for upgrade requests only.
func bearerToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, true
		}
	}
	return "", false
}

// WithCreator returns a context carrying the creator id.
func WithCreator(ctx context.Context, creatorID string) context.Context {
	return context.WithValue(ctx, CreatorKey, creatorID)
}

// CreatorFromCtx returns the authenticated creator id, or "" if there is none.
func CreatorFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(CreatorKey).(string)
	return id
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
