package cancel

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
	"github.com/e-sellers/storesync/internal/services/account"
)

type SubscriptionCanceler interface {
	CancelSubscription(ctx context.Context, username string) error
}

// New отменяет подписку текущего клиента. Дата продления при этом не
// изменяется: доступ сохраняется до конца оплаченного периода.
func New(log *slog.Logger, accounts SubscriptionCanceler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.subscription.cancel.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		username := middlewarectx.Username(r.Context())
		err := accounts.CancelSubscription(r.Context(), username)
		if errors.Is(err, account.ErrNotClient) {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("only client accounts have a subscription"))
			return
		}
		if err != nil {
			log.Error("failed to cancel subscription", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to cancel subscription"))
			return
		}

		log.Info("subscription canceled", slog.String("username", username))
		render.JSON(w, r, response.OK())
	}
}
