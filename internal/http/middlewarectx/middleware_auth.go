// Package middlewarectx содержит HTTP middleware панели: проверку JWT
// с учетом отозванных токенов, ограничение частоты запросов и проверку
// роли администратора.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/e-sellers/storesync/internal/http/response"
	"github.com/e-sellers/storesync/internal/lib/jwt"
	"github.com/e-sellers/storesync/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User ключ для имени пользователя в контексте
	User Key = "username"
	// Role ключ для роли пользователя в контексте
	Role Key = "role"
	// Token ключ для исходного токена в контексте, нужен logout
	Token Key = "token"
)

// TokenChecker сообщает, был ли токен отозван выходом из системы.
type TokenChecker interface {
	IsTokenRevoked(ctx context.Context, tokenStr string) (bool, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в
// заголовке Authorization и отклоняет отозванные токены.
//
// Если токен валиден, имя пользователя, роль и сам токен попадают в
// контекст запроса, иначе возвращается 401 Unauthorized.
func JWTMiddleware(jwtMaker jwt.Maker, tokens TokenChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const op = "middlewarectx.JWTMiddleware"

			log = log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := jwtMaker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			revoked, err := tokens.IsTokenRevoked(r.Context(), tokenStr)
			if err != nil {
				log.Error("failed to check token revocation", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}
			if revoked {
				log.Warn("revoked token used", slog.String("username", claims.Username))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), User, claims.Username)
			ctx = context.WithValue(ctx, Role, claims.Role)
			ctx = context.WithValue(ctx, Token, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Username достает имя пользователя из контекста запроса.
func Username(ctx context.Context) string {
	username, _ := ctx.Value(User).(string)
	return username
}

// UserRole достает роль из контекста запроса.
func UserRole(ctx context.Context) string {
	role, _ := ctx.Value(Role).(string)
	return role
}

// TokenString достает исходный токен из контекста запроса.
func TokenString(ctx context.Context) string {
	token, _ := ctx.Value(Token).(string)
	return token
}
