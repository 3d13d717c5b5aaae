package storesync

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/e-sellers/storesync/internal/http/handlers/auth/login"
	"github.com/e-sellers/storesync/internal/http/handlers/auth/logout"
	clientadd "github.com/e-sellers/storesync/internal/http/handlers/client/add"
	clientlist "github.com/e-sellers/storesync/internal/http/handlers/client/list"
	"github.com/e-sellers/storesync/internal/http/handlers/health"
	productlist "github.com/e-sellers/storesync/internal/http/handlers/products/list"
	settingstest "github.com/e-sellers/storesync/internal/http/handlers/settings/test"
	settingsupdate "github.com/e-sellers/storesync/internal/http/handlers/settings/update"
	stockupdate "github.com/e-sellers/storesync/internal/http/handlers/stock/update"
	"github.com/e-sellers/storesync/internal/http/handlers/subscription/cancel"
	synclogs "github.com/e-sellers/storesync/internal/http/handlers/syncrun/logs"
	syncstart "github.com/e-sellers/storesync/internal/http/handlers/syncrun/start"
	"github.com/e-sellers/storesync/internal/http/middlewarectx"
	"github.com/e-sellers/storesync/internal/lib/jwt"
	accountservice "github.com/e-sellers/storesync/internal/services/account"
	syncservice "github.com/e-sellers/storesync/internal/services/sync"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, jwtMaker jwt.Maker, accountService *accountservice.Service, syncService *syncservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, accountService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, accountService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/logout", logout.New(logger, accountService).ServeHTTP)
			r.Put("/settings", settingsupdate.New(logger, accountService).ServeHTTP)
			r.Post("/settings/test", settingstest.New(logger, accountService, syncService).ServeHTTP)
			r.Post("/subscription/cancel", cancel.New(logger, accountService).ServeHTTP)
			r.Get("/products", productlist.New(logger, accountService, syncService).ServeHTTP)
			r.Post("/inventory", stockupdate.New(logger, accountService, syncService).ServeHTTP)
			r.Post("/sync/{kind}", syncstart.New(logger, accountService, syncService).ServeHTTP)
			r.Get("/sync/logs", synclogs.New(logger, syncService).ServeHTTP)
			r.Delete("/sync/logs", synclogs.NewClear(logger, syncService).ServeHTTP)

			// Управление клиентами доступно только администратору
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))
				r.Post("/clients", clientadd.New(logger, accountService).ServeHTTP)
				r.Get("/clients", clientlist.New(logger, accountService).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
