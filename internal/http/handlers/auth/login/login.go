package login

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
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Authenticator interface {
	Login(ctx context.Context, username, rawPassword string) (string, *models.User, error)
}

func New(log *slog.Logger, auth Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.login.New"
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

		token, user, err := auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, account.ErrInvalidCredentials) {
				log.Warn("incorrect user or password", slog.String("username", req.Username))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("incorrect user or password"))
				return
			}
			log.Error("login failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
			return
		}

		log.Info("user logged in", slog.String("username", user.Username), slog.String("role", user.Role))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"token":    token,
			"username": user.Username,
			"role":     user.Role,
		}))
	}
}
