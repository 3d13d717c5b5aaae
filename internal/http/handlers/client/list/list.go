package list

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/e-sellers/storesync/internal/http/response"
	"github.com/e-sellers/storesync/internal/lib/sl"
	"github.com/e-sellers/storesync/internal/models"
)

type ClientLister interface {
	ListClients(ctx context.Context) ([]*models.User, error)
}

// clientView представление клиента без хэша пароля и токена доступа.
type clientView struct {
	UID                string     `json:"uid"`
	Username           string     `json:"username"`
	ConnectionStatus   string     `json:"connection_status"`
	SubscriptionStatus string     `json:"subscription_status"`
	PlanName           string     `json:"plan_name"`
	RenewalDate        *time.Time `json:"renewal_date,omitempty"`
	StoreDomain        string     `json:"store_domain,omitempty"`
}

func New(log *slog.Logger, clients ClientLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.client.list.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		users, err := clients.ListClients(r.Context())
		if err != nil {
			log.Error("failed to list clients", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to list clients"))
			return
		}

		views := make([]clientView, 0, len(users))
		for _, u := range users {
			views = append(views, clientView{
				UID:                u.UID,
				Username:           u.Username,
				ConnectionStatus:   u.ConnectionStatus,
				SubscriptionStatus: u.SubscriptionStatus,
				PlanName:           u.PlanName,
				RenewalDate:        u.RenewalDate,
				StoreDomain:        u.Config.StoreDomain,
			})
		}

		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"clients": views,
		}))
	}
}
