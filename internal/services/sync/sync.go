// Package sync содержит бизнес-логику запусков синхронизации: проверку
// подключения, получение товаров с кешированием, обновление остатков и
// исполнение фоновых заданий с ведением журнала.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/e-sellers/storesync/internal/models"
	"github.com/e-sellers/storesync/internal/shopify"
)

// ErrConfigMissing синхронизация запрошена без обязательных учетных данных.
// Проверяется до любого сетевого вызова.
var ErrConfigMissing = errors.New("store domain and access token must be configured")

// ErrUnknownSyncKind запрошен неизвестный вид синхронизации.
var ErrUnknownSyncKind = errors.New("unknown sync kind")

const productsCacheTTL = time.Hour

// LogRepository хранит журналы запусков.
type LogRepository interface {
	AppendLog(ctx context.Context, runUID, username string, entry models.LogEntry) error
	ListLogs(ctx context.Context, runUID, username string) ([]*models.LogEntry, error)
	ClearLogs(ctx context.Context, username string) error
}

// UserGetter возвращает пользователя по имени; нужен воркеру,
// получающему из очереди только username.
type UserGetter interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// ShopifyClient описывает операции конвейера запросов к магазину.
type ShopifyClient interface {
	FetchProducts(ctx context.Context, cfg models.StoreConfig) ([]shopify.Product, error)
	UpdateInventory(ctx context.Context, cfg models.StoreConfig, inventoryItemID int64, locationID string, quantity int) error
	TestConnection(ctx context.Context, cfg models.StoreConfig) shopify.TestResult
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// JobPublisher отправляет задание синхронизации в очередь воркера.
type JobPublisher interface {
	PublishJob(job any) error
}

// Service реализует операции синхронизации поверх конвейера запросов.
type Service struct {
	logs      LogRepository
	users     UserGetter
	client    ShopifyClient
	cache     Cache
	publisher JobPublisher
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(logs LogRepository, users UserGetter, client ShopifyClient, cache Cache, publisher JobPublisher, log *slog.Logger) *Service {
	return &Service{
		logs:      logs,
		users:     users,
		client:    client,
		cache:     cache,
		publisher: publisher,
		log:       log,
	}
}

// TestConnection проверяет учетные данные магазина. Статус подключения
// меняет только эта операция, результаты синхронизаций на него не влияют.
func (s *Service) TestConnection(ctx context.Context, user *models.User) (shopify.TestResult, error) {
	if err := checkConfig(user.Config); err != nil {
		return shopify.TestResult{}, err
	}
	return s.client.TestConnection(ctx, user.Config), nil
}

// Products возвращает товары магазина, используя кеш или конвейер.
func (s *Service) Products(ctx context.Context, user *models.User) ([]shopify.Product, error) {
	if err := checkConfig(user.Config); err != nil {
		return nil, err
	}

	cacheKey := productsCacheKey(user.Username)
	var cached []shopify.Product
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read products cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return cached, nil
	}

	products, err := s.client.FetchProducts(ctx, user.Config)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, products, productsCacheTTL); err != nil {
		s.log.Warn("failed to cache products", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return products, nil
}

// UpdateStock выставляет остаток товара и инвалидирует кеш списка товаров.
func (s *Service) UpdateStock(ctx context.Context, user *models.User, inventoryItemID int64, quantity int) error {
	if err := checkConfig(user.Config); err != nil {
		return err
	}
	if user.Config.LocationID == "" {
		return ErrConfigMissing
	}

	if err := s.client.UpdateInventory(ctx, user.Config, inventoryItemID, user.Config.LocationID, quantity); err != nil {
		return err
	}
	if err := s.cache.Invalidate(productsCacheKey(user.Username)); err != nil {
		s.log.Warn("failed to invalidate products cache", slog.Any("err", err))
	}
	return nil
}

// StartRun очищает прежний журнал пользователя, пишет первую запись и
// публикует задание в очередь. Возвращает идентификатор запуска.
func (s *Service) StartRun(ctx context.Context, user *models.User, kind string) (string, error) {
	const op = "sync.StartRun"

	if !models.ValidSyncKind(kind) {
		return "", ErrUnknownSyncKind
	}
	if err := checkConfig(user.Config); err != nil {
		return "", err
	}

	runUID := uuid.New().String()
	if err := s.logs.ClearLogs(ctx, user.Username); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.appendLog(ctx, runUID, user.Username, models.LogInfo,
		fmt.Sprintf("%s sync queued", kind)); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	job := models.SyncJob{RunUID: runUID, Username: user.Username, Kind: kind}
	if err := s.publisher.PublishJob(job); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("sync run queued",
		slog.String("run_uid", runUID),
		slog.String("username", user.Username),
		slog.String("kind", kind))
	return runUID, nil
}

// HandleJob входная точка воркера: разбирает сообщение очереди и
// исполняет запуск. Ошибки исполнения попадают в журнал запуска,
// в очередь сообщение не возвращается.
func (s *Service) HandleJob(ctx context.Context, body []byte) error {
	const op = "sync.HandleJob"
	var job models.SyncJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.Execute(ctx, job)
	return nil
}

// Execute выполняет запуск синхронизации, добавляя записи журнала.
// Любая ошибка завершает запуск записью ERROR и не роняет воркер.
func (s *Service) Execute(ctx context.Context, job models.SyncJob) {
	logErr := func(msg string) {
		_ = s.appendLog(ctx, job.RunUID, job.Username, models.LogError, msg)
	}

	user, err := s.users.GetUserByUsername(ctx, job.Username)
	if err != nil {
		logErr(fmt.Sprintf("failed to load account: %v", err))
		return
	}
	if err := checkConfig(user.Config); err != nil {
		logErr(err.Error())
		return
	}

	_ = s.appendLog(ctx, job.RunUID, job.Username, models.LogInfo,
		fmt.Sprintf("starting %s sync for %s", job.Kind, shopify.NormalizeDomain(user.Config.StoreDomain)))

	products, err := s.Products(ctx, user)
	if err != nil {
		logErr(fmt.Sprintf("failed to fetch products: %v", err))
		return
	}
	_ = s.appendLog(ctx, job.RunUID, job.Username, models.LogInfo,
		fmt.Sprintf("fetched %d products", len(products)))

	for _, p := range products {
		if ctx.Err() != nil {
			logErr("sync run canceled")
			return
		}
		if err := s.appendLog(ctx, job.RunUID, job.Username, models.LogInfo, describeStep(job.Kind, p)); err != nil {
			s.log.Warn("failed to append sync log", slog.String("run_uid", job.RunUID), slog.Any("err", err))
		}
	}

	_ = s.appendLog(ctx, job.RunUID, job.Username, models.LogSuccess,
		fmt.Sprintf("%s sync completed: %d items processed", job.Kind, len(products)))
}

// Logs возвращает журнал запуска в порядке добавления. Журнал выдается
// только владельцу запуска, чужой runUID дает пустой результат.
func (s *Service) Logs(ctx context.Context, runUID, username string) ([]*models.LogEntry, error) {
	return s.logs.ListLogs(ctx, runUID, username)
}

// ClearLogs очищает журнал пользователя по явному запросу.
func (s *Service) ClearLogs(ctx context.Context, username string) error {
	return s.logs.ClearLogs(ctx, username)
}

func (s *Service) appendLog(ctx context.Context, runUID, username, logType, message string) error {
	return s.logs.AppendLog(ctx, runUID, username, models.LogEntry{
		Type:      logType,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func describeStep(kind string, p shopify.Product) string {
	switch kind {
	case models.SyncStock:
		total := 0
		for _, v := range p.Variants {
			total += v.InventoryQuantity
		}
		return fmt.Sprintf("stock for %q: %d units across %d variants", p.Title, total, len(p.Variants))
	case models.SyncTags:
		return fmt.Sprintf("tags for %q: %s", p.Title, p.Tags)
	case models.SyncImages:
		return fmt.Sprintf("checked images for %q", p.Title)
	case models.SyncPrices:
		return fmt.Sprintf("checked prices for %q", p.Title)
	default:
		return fmt.Sprintf("processed %q", p.Title)
	}
}

func productsCacheKey(username string) string {
	return fmt.Sprintf("products:%s", username)
}

func checkConfig(cfg models.StoreConfig) error {
	if cfg.StoreDomain == "" || cfg.AccessToken == "" {
		return ErrConfigMissing
	}
	return nil
}
