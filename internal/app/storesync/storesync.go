// Package storesync собирает основное HTTP-приложение панели:
// хранилище, кеш, очередь заданий и маршруты API.
package storesync

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/e-sellers/storesync/internal/cache"
	"github.com/e-sellers/storesync/internal/config"
	"github.com/e-sellers/storesync/internal/lib/jwt"
	"github.com/e-sellers/storesync/internal/lib/rabbitmq"
	"github.com/e-sellers/storesync/internal/migrations"
	accountservice "github.com/e-sellers/storesync/internal/services/account"
	syncservice "github.com/e-sellers/storesync/internal/services/sync"
	"github.com/e-sellers/storesync/internal/shopify"
	"github.com/e-sellers/storesync/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetSyncQueues())
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	accountService := accountservice.New(db, cacheRedis, jwtMaker, logger)

	if err := accountService.Bootstrap(ctx,
		accountservice.BootstrapAccount{Username: cfg.Bootstrap.AdminUsername, Password: cfg.Bootstrap.AdminPassword},
		accountservice.BootstrapAccount{Username: cfg.Bootstrap.DemoUsername, Password: cfg.Bootstrap.DemoPassword},
	); err != nil {
		return nil, err
	}

	shopifyClient := shopify.NewClient(cfg.Shopify, logger)
	syncService := syncservice.New(db, db, shopifyClient, cacheRedis, rabbitmq.NewJobPublisher(ch), logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db.DB, jwtMaker, accountService, syncService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}
