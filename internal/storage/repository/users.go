package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/e-sellers/storesync/internal/models"
)

// ErrUserNotFound возвращается, когда пользователь отсутствует в хранилище.
var ErrUserNotFound = errors.New("user not found")

// CreateUser сохраняет нового пользователя и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	configJSON, err := json.Marshal(user.Config)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var newUID string
	query := `INSERT INTO users (username, password_hash, role, config, connection_status,
			      subscription_status, plan_name, renewal_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.Role, configJSON, user.ConnectionStatus,
		nullString(user.SubscriptionStatus), nullString(user.PlanName), user.RenewalDate).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByUsername возвращает пользователя по точному совпадению username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, password_hash, role, config, connection_status,
			      subscription_status, plan_name, renewal_date, created_at
			  FROM users
			  WHERE username = $1`
	row := s.DB.QueryRowContext(ctx, query, username)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UsernameExists проверяет занятость имени без учета регистра.
func (s *Storage) UsernameExists(ctx context.Context, username string) (bool, error) {
	const op = "storage.UsernameExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`
	if err := s.DB.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// AdminExists проверяет наличие хотя бы одной учетной записи ADMIN.
func (s *Storage) AdminExists(ctx context.Context) (bool, error) {
	const op = "storage.AdminExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`
	if err := s.DB.QueryRowContext(ctx, query, models.RoleAdmin).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListClients возвращает всех клиентов в порядке создания.
func (s *Storage) ListClients(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListClients"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, password_hash, role, config, connection_status,
			      subscription_status, plan_name, renewal_date, created_at
			  FROM users
			  WHERE role = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, models.RoleClient)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUserConfig заменяет конфиг магазина и статус подключения пользователя.
func (s *Storage) UpdateUserConfig(ctx context.Context, username string, cfg models.StoreConfig, connectionStatus string) error {
	const op = "storage.UpdateUserConfig"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE users
			  SET config = $1,
			      connection_status = $2
			  WHERE username = $3`
	res, err := s.DB.ExecContext(ctx, query, configJSON, connectionStatus, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// CancelSubscription переводит подписку клиента в статус CANCELED.
// Дата продления не меняется: доступ сохраняется до нее.
func (s *Storage) CancelSubscription(ctx context.Context, username string) error {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1
			  WHERE username = $2`
	res, err := s.DB.ExecContext(ctx, query, models.SubscriptionCanceled, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var configJSON []byte
	var subscriptionStatus, planName sql.NullString
	var renewalDate sql.NullTime

	if err := row.Scan(&u.UID, &u.Username, &u.PasswordHash, &u.Role, &configJSON,
		&u.ConnectionStatus, &subscriptionStatus, &planName, &renewalDate, &u.CreatedAt); err != nil {
		return nil, err
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &u.Config); err != nil {
			return nil, err
		}
	}
	if subscriptionStatus.Valid {
		u.SubscriptionStatus = subscriptionStatus.String
	}
	if planName.Valid {
		u.PlanName = planName.String
	}
	if renewalDate.Valid {
		u.RenewalDate = &renewalDate.Time
	}
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
