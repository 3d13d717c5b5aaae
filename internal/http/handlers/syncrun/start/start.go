package start

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/e-sellers/storesync/internal/http/middlewarectx"
	"github.com/e-sellers/storesync/internal/http/response"
	"github.com/e-sellers/storesync/internal/lib/sl"
	"github.com/e-sellers/storesync/internal/models"
	"github.com/e-sellers/storesync/internal/services/sync"
)

type AccountProvider interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
}

type RunStarter interface {
	StartRun(ctx context.Context, user *models.User, kind string) (string, error)
}

// New ставит запуск синхронизации в очередь и возвращает его идентификатор.
// Само исполнение происходит в фоновом воркере.
func New(log *slog.Logger, accounts AccountProvider, runs RunStarter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.syncrun.start.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		kind := chi.URLParam(r, "kind")
		username := middlewarectx.Username(r.Context())

		user, err := accounts.GetUser(r.Context(), username)
		if err != nil {
			log.Error("failed to load account", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to load account"))
			return
		}

		runUID, err := runs.StartRun(r.Context(), user, kind)
		if errors.Is(err, sync.ErrUnknownSyncKind) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown sync kind"))
			return
		}
		if errors.Is(err, sync.ErrConfigMissing) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("store domain and access token must be configured"))
			return
		}
		if err != nil {
			log.Error("failed to queue sync run", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to queue sync run"))
			return
		}

		log.Info("sync run queued",
			slog.String("username", username),
			slog.String("kind", kind),
			slog.String("run_uid", runUID))
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"run_uid": runUID,
			"kind":    kind,
		}))
	}
}
