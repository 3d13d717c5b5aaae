package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/e-sellers/storesync/internal/http/middlewarectx"
	"github.com/e-sellers/storesync/internal/http/response"
	"github.com/e-sellers/storesync/internal/lib/sl"
)

type SessionCloser interface {
	Logout(ctx context.Context, tokenStr string) error
}

func New(log *slog.Logger, sessions SessionCloser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := middlewarectx.TokenString(r.Context())
		if err := sessions.Logout(r.Context(), token); err != nil {
			log.Error("failed to revoke token", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
			return
		}

		log.Info("user logged out", slog.String("username", middlewarectx.Username(r.Context())))
		render.JSON(w, r, response.OK())
	}
}
