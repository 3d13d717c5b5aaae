package shopify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/e-sellers/storesync/internal/config"
	"github.com/e-sellers/storesync/internal/lib/sl"
	"github.com/e-sellers/storesync/internal/models"
)

var (
	transportAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storesync_transport_attempts_total",
		Help: "Number of Shopify request attempts per transport.",
	}, []string{"transport"})
	transportFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storesync_transport_failures_total",
		Help: "Number of failed Shopify request attempts per transport.",
	}, []string{"transport"})
)

// Client выполняет вызовы Admin API через упорядоченную цепочку транспортов.
// Состояние между вызовами не сохраняется: каждый вызов делает независимый
// проход по цепочке.
type Client struct {
	transports []Transport
	log        *slog.Logger
}

// NewClient собирает цепочку транспортов из конфига: прямой вызов,
// публичные прокси в порядке перечисления, затем relay-сервис,
// если его адрес задан.
func NewClient(cfg config.Shopify, log *slog.Logger) *Client {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	transports := []Transport{
		&DirectTransport{APIVersion: cfg.APIVersion, HTTPClient: httpClient},
	}
	for _, proxyURL := range cfg.PublicProxies {
		transports = append(transports, &ProxyTransport{
			ProxyURL:   proxyURL,
			APIVersion: cfg.APIVersion,
			HTTPClient: httpClient,
		})
	}
	if cfg.RelayURL != "" {
		transports = append(transports, &RelayTransport{RelayURL: cfg.RelayURL, HTTPClient: httpClient})
	}
	return &Client{transports: transports, log: log}
}

// NewClientWithTransports используется в тестах и там, где цепочка
// собирается вручную.
func NewClientWithTransports(log *slog.Logger, transports ...Transport) *Client {
	return &Client{transports: transports, log: log}
}

// Do прогоняет запрос по цепочке. Первый успех возвращается сразу,
// любая ошибка попытки (включая 4xx/5xx) переключает на следующий
// транспорт. Исчерпанная цепочка возвращает *ChainError со всеми попытками.
func (c *Client) Do(ctx context.Context, cfg models.StoreConfig, req *Request) (*Response, error) {
	chainErr := &ChainError{}
	for _, transport := range c.transports {
		transportAttempts.WithLabelValues(transport.Name()).Inc()

		resp, err := transport.Do(ctx, cfg, req)
		if err == nil {
			c.log.Debug("transport succeeded",
				slog.String("transport", transport.Name()),
				slog.String("endpoint", req.Endpoint))
			return resp, nil
		}

		transportFailures.WithLabelValues(transport.Name()).Inc()
		c.log.Warn("transport failed, trying next",
			slog.String("transport", transport.Name()),
			slog.String("endpoint", req.Endpoint),
			sl.Err(err))
		chainErr.Attempts = append(chainErr.Attempts, Attempt{Transport: transport.Name(), Err: err})

		if ctx.Err() != nil {
			break
		}
	}
	return nil, chainErr
}

// GetShop возвращает профиль магазина.
func (c *Client) GetShop(ctx context.Context, cfg models.StoreConfig) (*Shop, error) {
	const op = "shopify.GetShop"
	resp, err := c.Do(ctx, cfg, &Request{Endpoint: "/shop.json", Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	shop, err := decodeShop(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return shop, nil
}

// FetchProducts возвращает список товаров магазина.
func (c *Client) FetchProducts(ctx context.Context, cfg models.StoreConfig) ([]Product, error) {
	const op = "shopify.FetchProducts"
	resp, err := c.Do(ctx, cfg, &Request{Endpoint: "/products.json", Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	products, err := decodeProducts(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// UpdateInventory выставляет доступный остаток по inventory item в локации.
func (c *Client) UpdateInventory(ctx context.Context, cfg models.StoreConfig, inventoryItemID int64, locationID string, quantity int) error {
	_, err := c.Do(ctx, cfg, &Request{
		Endpoint: "/inventory_levels/set.json",
		Method:   http.MethodPost,
		Body: map[string]any{
			"location_id":       locationID,
			"inventory_item_id": inventoryItemID,
			"available":         quantity,
		},
	})
	return err
}

// TestResult итог явного теста подключения к магазину.
type TestResult struct {
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	ShopName      string `json:"shop_name,omitempty"`
	ProductsCount int    `json:"products_count"`
}

// TestConnection проверяет учетные данные двумя вызовами: профиль магазина,
// затем выборка одного товара. Статусы 401/403/404 переводятся в подсказки
// пользователю, остальные ошибки попадают в общее сообщение.
func (c *Client) TestConnection(ctx context.Context, cfg models.StoreConfig) TestResult {
	shop, err := c.GetShop(ctx, cfg)
	if err != nil {
		return TestResult{Success: false, Error: connectionHint(err)}
	}

	resp, err := c.Do(ctx, cfg, &Request{Endpoint: "/products.json?limit=1", Method: http.MethodGet})
	if err != nil {
		return TestResult{Success: false, Error: connectionHint(err), ShopName: shop.Name}
	}
	products, err := decodeProducts(resp.Body)
	if err != nil {
		return TestResult{Success: false, Error: "invalid response format from products API", ShopName: shop.Name}
	}

	return TestResult{Success: true, ShopName: shop.Name, ProductsCount: len(products)}
}

// connectionHint строит сообщение об ошибке подключения по типизированному
// HTTP-статусу из цепочки попыток.
func connectionHint(err error) string {
	var chainErr *ChainError
	if errors.As(err, &chainErr) {
		if httpErr, ok := chainErr.FirstHTTP(); ok {
			switch httpErr.Status {
			case http.StatusUnauthorized, http.StatusForbidden:
				return "access denied - check if your access token is valid and has the correct permissions"
			case http.StatusNotFound:
				return "store not found - check if the store domain is correct"
			}
			return fmt.Sprintf("shopify api error: %d %s", httpErr.Status, httpErr.StatusText)
		}
		return "network error - check if the store domain is correct and accessible"
	}
	return err.Error()
}
