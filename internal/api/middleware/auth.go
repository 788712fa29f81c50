package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/viepratiqueservice-arch/Visela/internal/auth"
)

// AccessCookie is the cookie the browser storefront sends its token in.
const AccessCookie = "access_token"

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// accessToken reads the token from the cookie, then from a bearer
// Authorization header.
func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}

type claimsKey struct{}

// AuthMiddleware validates the access token and puts its claims on the context.
func AuthMiddleware(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessToken(r)
			if token == "" {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				message := "invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					message = "token expired"
				}
				respondError(w, message, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole lets through only users holding one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			switch {
			case !ok:
				respondError(w, "unauthorized", http.StatusUnauthorized)
			case !slices.Contains(roles, claims.Role):
				respondError(w, "forbidden", http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func GetUserFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// GetUserID returns the signed-in user's id, or "" outside AuthMiddleware.
func GetUserID(ctx context.Context) string {
	if claims, ok := GetUserFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}
