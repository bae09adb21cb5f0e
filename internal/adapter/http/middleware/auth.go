package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
)

// UserIDKeyType is a custom type for the user ID context key to avoid collisions.
type UserIDKeyType string

// UserRoleKeyType is a custom type for the user role context key.
type UserRoleKeyType string

const (
	// UserIDKey is the key used to store and retrieve the authenticated UserID from the context.
	UserIDKey UserIDKeyType = "authenticatedUserID"
	// UserRoleKey is the key used to store and retrieve the authenticated user's role from the context.
	UserRoleKey UserRoleKeyType = "authenticatedUserRole"
)

// Claims defines the structure of the JWT claims expected from the token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer token and puts the caller's id and role on the
// request context. Requests without a valid token get 401.
func JWTAuth(jwtSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("JWTAuth: 'Authorization' header not found", zap.String("path", r.URL.Path))
				http.Error(w, "authorization token is not provided", http.StatusUnauthorized)
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("JWTAuth: invalid 'Authorization' header format", zap.String("path", r.URL.Path))
				http.Error(w, "authorization token format is invalid, expected 'Bearer <token>'", http.StatusUnauthorized)
				return
			}
			tokenString := parts[1]

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected token signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				log.Warn("JWTAuth: token validation failed", zap.String("path", r.URL.Path), zap.Error(err))
				http.Error(w, "authorization token is invalid", http.StatusUnauthorized)
				return
			}
			if claims.UserID == "" {
				log.Warn("JWTAuth: token has no user_id claim", zap.String("path", r.URL.Path))
				http.Error(w, "authorization token is invalid", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user's id, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok
}

// UserRoleFromContext returns the authenticated user's role, if present.
func UserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
