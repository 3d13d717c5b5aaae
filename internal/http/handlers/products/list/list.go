package list

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
}

type ProductFetcher interface {
	Products(ctx context.Context, user *models.User) ([]shopify.Product, error)
}

// New возвращает товары магазина текущего пользователя.
func New(log *slog.Logger, accounts AccountProvider, fetcher ProductFetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.list.New"

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

		products, err := fetcher.Products(r.Context(), user)
		if errors.Is(err, sync.ErrConfigMissing) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("store domain and access token must be configured"))
			return
		}
		if err != nil {
			log.Error("failed to fetch products", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error(fetchErrorMessage(err)))
			return
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"products": products,
			"count":    len(products),
		}))
	}
}

// fetchErrorMessage поднимает наружу подсказку из последней попытки
// цепочки транспортов, если она есть.
func fetchErrorMessage(err error) string {
	var chainErr *shopify.ChainError
	if errors.As(err, &chainErr) {
		return chainErr.Error()
	}
	return "failed to fetch products"
}
