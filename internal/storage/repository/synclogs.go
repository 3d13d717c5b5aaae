package repository

import (
	"context"
	"fmt"

	"github.com/e-sellers/storesync/internal/models"
)

// AppendLog добавляет строку в журнал запуска синхронизации.
func (s *Storage) AppendLog(ctx context.Context, runUID, username string, entry models.LogEntry) error {
	const op = "storage.AppendLog"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO sync_logs (run_uid, username, log_type, message, logged_at)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query, runUID, username, entry.Type, entry.Message, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListLogs возвращает журнал запуска в порядке добавления записей.
// Запуск принадлежит пользователю: чужой run_uid дает пустой результат.
func (s *Storage) ListLogs(ctx context.Context, runUID, username string) ([]*models.LogEntry, error) {
	const op = "storage.ListLogs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT log_type, message, logged_at
			  FROM sync_logs
			  WHERE run_uid = $1 AND username = $2
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, runUID, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.LogEntry
	for rows.Next() {
		var entry models.LogEntry
		if err = rows.Scan(&entry.Type, &entry.Message, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ClearLogs удаляет журнал пользователя. Вызывается явным запросом
// на очистку и перед началом нового запуска того же вида.
func (s *Storage) ClearLogs(ctx context.Context, username string) error {
	const op = "storage.ClearLogs"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM sync_logs WHERE username = $1`
	if _, err := s.DB.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
