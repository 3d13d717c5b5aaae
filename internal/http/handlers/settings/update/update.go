package update

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/e-sellers/storesync/internal/http/middlewarectx"
	"github.com/e-sellers/storesync/internal/http/response"
	"github.com/e-sellers/storesync/internal/lib/sl"
	"github.com/e-sellers/storesync/internal/models"
)

// Request настройки магазина текущего пользователя. Домен и токен
// обязательны, остальные поля опциональны.
type Request struct {
	StoreDomain   string `json:"store_domain" validate:"required"`
	AccessToken   string `json:"access_token" validate:"required"`
	LocationID    string `json:"location_id,omitempty"`
	GoogleSheetID string `json:"google_sheet_id,omitempty"`
}

type ConfigUpdater interface {
	UpdateConfig(ctx context.Context, username string, cfg models.StoreConfig, connectionStatus string) error
}

func New(log *slog.Logger, accounts ConfigUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.settings.update.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		err := render.DecodeJSON(r.Body, &req)
		if errors.Is(err, io.EOF) {
			log.Error("request body is empty")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("empty request"))
			return
		}
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		username := middlewarectx.Username(r.Context())
		cfg := models.StoreConfig{
			StoreDomain:   req.StoreDomain,
			AccessToken:   req.AccessToken,
			LocationID:    req.LocationID,
			GoogleSheetID: req.GoogleSheetID,
		}

		// Сохранение настроек сбрасывает статус подключения: он
		// подтверждается только явной проверкой соединения.
		if err := accounts.UpdateConfig(r.Context(), username, cfg, models.ConnectionUntested); err != nil {
			log.Error("failed to update settings", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to update settings"))
			return
		}

		log.Info("settings updated", slog.String("username", username))
		render.JSON(w, r, response.OK())
	}
}
