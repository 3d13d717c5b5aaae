package test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/e-sellers/storesync/internal/http/middlewarectx"
	"github.com/e-sellers/storesync/internal/http/response"
	"github.com/e-sellers/storesync/internal/lib/sl"
	"github.com/e-sellers/storesync/internal/models"
	"github.com/e-sellers/storesync/internal/services/sync"
	"github.com/e-sellers/storesync/internal/shopify"
)

type AccountProvider interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	UpdateConfig(ctx context.Context, username string, cfg models.StoreConfig, connectionStatus string) error
}

type ConnectionTester interface {
	TestConnection(ctx context.Context, user *models.User) (shopify.TestResult, error)
}

// New проверяет сохраненные учетные данные магазина и фиксирует
// результат в статусе подключения пользователя.
func New(log *slog.Logger, accounts AccountProvider, tester ConnectionTester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.settings.test.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		username := middlewarectx.Username(r.Context())
		user, err := accounts.GetUser(r.Context(), username)
		if err != nil {
			log.Error("failed to load account", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to load account"))
			return
		}

		// Пока идет проверка, панель видит промежуточный статус TESTING.
		if err := accounts.UpdateConfig(r.Context(), username, user.Config, models.ConnectionTesting); err != nil {
			log.Error("failed to persist connection status", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to persist connection status"))
			return
		}

		result, err := tester.TestConnection(r.Context(), user)
		if err != nil {
			// Статус не должен зависнуть в TESTING
			settled := models.ConnectionFailed
			if errors.Is(err, sync.ErrConfigMissing) {
				settled = models.ConnectionUntested
			}
			if perr := accounts.UpdateConfig(r.Context(), username, user.Config, settled); perr != nil {
				log.Error("failed to persist connection status", sl.Err(perr))
			}
			if errors.Is(err, sync.ErrConfigMissing) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("store domain and access token must be configured"))
				return
			}
			log.Error("connection test failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to test connection"))
			return
		}

		status := models.ConnectionConnected
		if !result.Success {
			status = models.ConnectionFailed
		}
		if err := accounts.UpdateConfig(r.Context(), username, user.Config, status); err != nil {
			log.Error("failed to persist connection status", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to persist connection status"))
			return
		}

		log.Info("connection tested",
			slog.String("username", username),
			slog.Bool("success", result.Success))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"result": result,
		}))
	}
}
