package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lumenave/visitor-pass-service/internal/utils"
)

type contextKey string

// ContextKeyAdminID identifies the authenticated oversight actor.
const ContextKeyAdminID contextKey = "adminID"

// AdminAuthMiddleware guards the oversight endpoints with an HS256 bearer
// token whose subject is the acting admin.
func AdminAuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondErrorWithCode(w, http.StatusUnauthorized,
					utils.ErrCodeUnauthorized, "Missing bearer token", nil)
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				utils.RespondErrorWithCode(w, http.StatusUnauthorized,
					utils.ErrCodeUnauthorized, "Invalid or expired token", nil, err)
				return
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				utils.RespondErrorWithCode(w, http.StatusUnauthorized,
					utils.ErrCodeUnauthorized, "Token missing subject", nil, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAdminID, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
