package add

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/e-sellers/storesync/internal/http/response"
	"github.com/e-sellers/storesync/internal/lib/sl"
	"github.com/e-sellers/storesync/internal/models"
	"github.com/e-sellers/storesync/internal/services/account"
)

type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=4"`
}

type ClientCreator interface {
	AddClient(ctx context.Context, username, rawPassword string) (*models.User, error)
}

func New(log *slog.Logger, clients ClientCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.client.add.New"
		var req Request

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		client, err := clients.AddClient(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, account.ErrDuplicateUsername) {
				log.Warn("duplicate username", slog.String("username", req.Username))
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("username already exists"))
				return
			}
			log.Error("failed to create client", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to create client"))
			return
		}

		log.Info("created new client", slog.String("username", client.Username))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"uid":                 client.UID,
			"username":            client.Username,
			"subscription_status": client.SubscriptionStatus,
			"plan_name":           client.PlanName,
			"renewal_date":        client.RenewalDate,
		}))
	}
}
