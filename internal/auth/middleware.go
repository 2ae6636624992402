package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/luigy23/BackComandapp/internal/apperr"
	"github.com/luigy23/BackComandapp/internal/web"
)

type contextKey struct{}

var claimsKey contextKey

// ClaimsFrom returns the identity stored by Middleware, if any.
func ClaimsFrom(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}

// WithClaims seats an identity in the context the way Middleware does.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Middleware verifies the bearer token and injects the caller identity into
// the request context.
func Middleware(jwtSecret string, next http.Handler) http.Handler {
	secret := []byte(jwtSecret)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			web.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			web.WriteError(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			web.WriteError(w, http.StatusUnauthorized, "invalid authorization token")
			return
		}

		mapClaims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, mapClaims, func(token *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			web.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		claims := Claims{}
		claims.UserID, _ = mapClaims["id"].(string)
		claims.Email, _ = mapClaims["email"].(string)
		claims.RoleID, _ = mapClaims["role_id"].(string)
		if claims.UserID == "" || claims.RoleID == "" {
			web.WriteError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// PermissionStore answers whether a role carries a permission.
type PermissionStore interface {
	RoleHasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

// RequirePermission gates a handler behind a role permission. It must run
// inside Middleware so the claims are present.
func RequirePermission(store PermissionStore, permission string, next http.Handler) http.Handler {
	return RequireAnyPermission(store, []string{permission}, next)
}

// RequireAnyPermission passes when the caller's role holds at least one of
// the listed permissions.
func RequireAnyPermission(store PermissionStore, permissions []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			web.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		for _, permission := range permissions {
			allowed, err := store.RoleHasPermission(r.Context(), claims.RoleID, permission)
			if err != nil {
				web.WriteAppError(w, apperr.Wrap(err, apperr.KindInternal, "check permission"))
				return
			}
			if allowed {
				next.ServeHTTP(w, r)
				return
			}
		}

		web.WriteAppError(w, apperr.New(apperr.KindForbidden, "you do not have permission to perform this action"))
	})
}
