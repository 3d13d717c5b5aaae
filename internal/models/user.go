// Package models содержит доменную модель пользователя панели:
// учетную запись администратора или клиента вместе с настройками
// подключения к магазину Shopify и состоянием подписки.
package models

import "time"

// Роли пользователей. В системе всегда существует ровно один ADMIN.
const (
	RoleAdmin  = "ADMIN"
	RoleClient = "CLIENT"
)

// Статусы проверки подключения к магазину. Меняются только явным
// тестом подключения, результаты синхронизаций на них не влияют.
const (
	ConnectionUntested  = "UNTESTED"
	ConnectionTesting   = "TESTING"
	ConnectionConnected = "CONNECTED"
	ConnectionFailed    = "FAILED"
)

// Статусы подписки клиента на сервис.
const (
	SubscriptionActive   = "ACTIVE"
	SubscriptionCanceled = "CANCELED"
)

// StoreConfig хранит учетные данные клиента для Shopify Admin API.
type StoreConfig struct {
	StoreDomain   string `json:"store_domain"`
	AccessToken   string `json:"access_token"`
	LocationID    string `json:"location_id,omitempty"`
	GoogleSheetID string `json:"google_sheet_id,omitempty"`
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID                string      // Уникальный идентификатор пользователя
	Username           string      // Имя пользователя (уникальное без учета регистра)
	PasswordHash       string      // bcrypt-хэш пароля
	Role               string      // ADMIN или CLIENT
	Config             StoreConfig // Учетные данные магазина
	ConnectionStatus   string      // Результат последнего теста подключения
	SubscriptionStatus string      // Только для CLIENT: ACTIVE или CANCELED
	PlanName           string      // Только для CLIENT: название тарифа
	RenewalDate        *time.Time  // Только для CLIENT: дата продления подписки
	CreatedAt          time.Time
}

// IsClient сообщает, относится ли учетная запись к клиентам сервиса.
func (u *User) IsClient() bool {
	return u.Role == RoleClient
}
