package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/e-sellers/storesync/internal/http/response"
	"github.com/e-sellers/storesync/internal/models"
)

// RequireAdmin пропускает дальше только пользователей с ролью ADMIN.
// Ставится после JWTMiddleware.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserRole(r.Context()) != models.RoleAdmin {
				log.Warn("admin-only endpoint requested",
					slog.String("username", Username(r.Context())),
					slog.String("role", UserRole(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
