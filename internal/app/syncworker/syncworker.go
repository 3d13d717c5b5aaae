// Package syncworker собирает фоновый воркер, исполняющий запуски
// синхронизации из очереди заданий.
package syncworker

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/e-sellers/storesync/internal/cache"
	"github.com/e-sellers/storesync/internal/config"
	librabbitmq "github.com/e-sellers/storesync/internal/lib/rabbitmq"
	"github.com/e-sellers/storesync/internal/rabbitmq"
	syncservice "github.com/e-sellers/storesync/internal/services/sync"
	"github.com/e-sellers/storesync/internal/shopify"
	"github.com/e-sellers/storesync/internal/storage/repository"
)

type App struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	syncService *syncservice.Service
	logger      *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := librabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := librabbitmq.SetupChannel(conn, librabbitmq.GetSyncQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	shopifyClient := shopify.NewClient(cfg.Shopify, logger)
	// Воркер только исполняет задания, публикация ему не нужна.
	syncService := syncservice.New(db, db, shopifyClient, cacheRedis, librabbitmq.NewJobPublisher(ch), logger)

	return &App{
		conn:        conn,
		ch:          ch,
		syncService: syncService,
		logger:      logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, librabbitmq.SyncJobsQueue, func(body []byte) error {
		return a.syncService.HandleJob(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start sync jobs consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sync worker shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
