// Package models содержит доменные структуры журналов и заданий синхронизации.
package models

import "time"

// Типы записей журнала синхронизации.
const (
	LogInfo    = "INFO"
	LogSuccess = "SUCCESS"
	LogWarn    = "WARN"
	LogError   = "ERROR"
)

// Виды запусков синхронизации, соответствующие разделам панели.
const (
	SyncProducts = "products"
	SyncStock    = "stock"
	SyncImages   = "images"
	SyncTags     = "tags"
	SyncPrices   = "prices"
)

// LogEntry одна строка журнала запуска синхронизации.
// Журнал пополняется только добавлением, очищается явным запросом
// либо перед началом нового запуска того же вида.
type LogEntry struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncJob задание на запуск синхронизации, публикуемое в очередь
// и исполняемое воркером.
type SyncJob struct {
	RunUID   string `json:"run_uid"`
	Username string `json:"username"`
	Kind     string `json:"kind"`
}

// ValidSyncKind проверяет, что вид синхронизации известен системе.
func ValidSyncKind(kind string) bool {
	switch kind {
	case SyncProducts, SyncStock, SyncImages, SyncTags, SyncPrices:
		return true
	}
	return false
}
