package logs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/e-sellers/storesync/internal/http/middlewarectx"
	"github.com/e-sellers/storesync/internal/http/response"
	"github.com/e-sellers/storesync/internal/lib/sl"
	"github.com/e-sellers/storesync/internal/models"
)

type LogReader interface {
	Logs(ctx context.Context, runUID, username string) ([]*models.LogEntry, error)
}

type LogCleaner interface {
	ClearLogs(ctx context.Context, username string) error
}

// New возвращает журнал запуска синхронизации в порядке добавления
// записей. Идентификатор запуска передается параметром run.
func New(log *slog.Logger, reader LogReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.syncrun.logs.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		runUID := r.URL.Query().Get("run")
		if runUID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("run parameter is required"))
			return
		}

		// Журнал читает только владелец запуска
		username := middlewarectx.Username(r.Context())
		entries, err := reader.Logs(r.Context(), runUID, username)
		if err != nil {
			log.Error("failed to read sync logs", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to read sync logs"))
			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"run_uid": runUID,
			"entries": entries,
		}))
	}
}

// NewClear очищает журнал синхронизаций текущего пользователя.
func NewClear(log *slog.Logger, cleaner LogCleaner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.syncrun.logs.NewClear"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		username := middlewarectx.Username(r.Context())
		if err := cleaner.ClearLogs(r.Context(), username); err != nil {
			log.Error("failed to clear sync logs", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to clear sync logs"))
			return
		}

		log.Info("sync logs cleared", slog.String("username", username))
		render.JSON(w, r, response.OK())
	}
}
