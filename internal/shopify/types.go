// Package shopify реализует исходящий конвейер запросов к Shopify Admin API.
//
// Запрос проходит упорядоченную цепочку транспортов: прямой вызов,
// публичные прокси в фиксированном порядке, затем собственный relay-сервис.
// Первый успешный ответ возвращается сразу, ошибки отдельных транспортов
// накапливаются и отдаются одной агрегированной ошибкой, если цепочка
// исчерпана.
package shopify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/e-sellers/storesync/internal/models"
)

// Request описывает один вызов Admin API независимо от транспорта.
type Request struct {
	Endpoint string // путь вида "/products.json", включая query-параметры
	Method   string
	Body     any // сериализуется в JSON, nil для GET
}

// Response нормализованный ответ транспорта.
type Response struct {
	Status     int
	StatusText string
	Body       []byte
}

// Shop профиль магазина из /shop.json.
type Shop struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
}

// Variant вариант товара с остатком на складе.
type Variant struct {
	ID                int64 `json:"id"`
	InventoryQuantity int   `json:"inventory_quantity"`
	InventoryItemID   int64 `json:"inventory_item_id"`
}

// Product товар магазина.
type Product struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Vendor   string    `json:"vendor,omitempty"`
	Tags     string    `json:"tags,omitempty"`
	Variants []Variant `json:"variants,omitempty"`
}

// NormalizeDomain приводит введенный пользователем домен магазина к виду
// "store.myshopify.com": отбрасывает схему и случайно вставленный префикс
// Admin API.
func NormalizeDomain(domain string) string {
	d := strings.TrimPrefix(domain, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.Index(d, "/admin/api"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, "/")
}

// APIURL собирает полный адрес вызова Admin API.
func APIURL(domain, version, endpoint string) string {
	return fmt.Sprintf("https://%s/admin/api/%s%s", NormalizeDomain(domain), version, endpoint)
}

func apiURL(cfg models.StoreConfig, version, endpoint string) string {
	return APIURL(cfg.StoreDomain, version, endpoint)
}

// decodeShop разбирает ответ /shop.json, допуская как обертку {"shop": {...}},
// так и голый объект: публичные прокси иногда снимают обертку.
func decodeShop(body []byte) (*Shop, error) {
	var wrapped struct {
		Shop *Shop `json:"shop"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Shop != nil {
		return wrapped.Shop, nil
	}
	var bare Shop
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("unexpected shop response shape: %w", err)
	}
	if bare.ID == 0 && bare.Name == "" {
		return nil, fmt.Errorf("unexpected shop response shape")
	}
	return &bare, nil
}

// decodeProducts разбирает список товаров, допуская форму {"products": [...]}
// и голый массив.
func decodeProducts(body []byte) ([]Product, error) {
	var wrapped struct {
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Products != nil {
		return wrapped.Products, nil
	}
	var bare []Product
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("unexpected products response shape: %w", err)
	}
	return bare, nil
}
