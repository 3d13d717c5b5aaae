// Package health отдает состояние сервиса для проверок живости.
package health

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/render"

	"github.com/e-sellers/storesync/internal/http/response"
)

func New(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("database unavailable"))
			return
		}
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"service": "storesync",
		}))
	}
}
