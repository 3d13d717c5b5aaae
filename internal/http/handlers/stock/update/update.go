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
	"github.com/e-sellers/storesync/internal/services/sync"
)

// Request запрос на выставление остатка по позиции склада.
type Request struct {
	InventoryItemID int64 `json:"inventory_item_id" validate:"required"`
	Quantity        int   `json:"quantity" validate:"min=0"`
}

type AccountProvider interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
}

type StockUpdater interface {
	UpdateStock(ctx context.Context, user *models.User, inventoryItemID int64, quantity int) error
}

func New(log *slog.Logger, accounts AccountProvider, stocks StockUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.stock.update.New"

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
		user, err := accounts.GetUser(r.Context(), username)
		if err != nil {
			log.Error("failed to load account", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to load account"))
			return
		}

		err = stocks.UpdateStock(r.Context(), user, req.InventoryItemID, req.Quantity)
		if errors.Is(err, sync.ErrConfigMissing) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("store domain, access token and location id must be configured"))
			return
		}
		if err != nil {
			log.Error("failed to update stock", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("failed to update stock"))
			return
		}

		log.Info("stock updated",
			slog.String("username", username),
			slog.Int64("inventory_item_id", req.InventoryItemID),
			slog.Int("quantity", req.Quantity))
		render.JSON(w, r, response.OK())
	}
}
