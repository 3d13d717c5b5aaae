// Package account содержит бизнес-логику учетных записей панели:
// первичную инициализацию, вход и выход, создание клиентов, обновление
// настроек магазина и отмену подписки.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/e-sellers/storesync/internal/lib/jwt"
	"github.com/e-sellers/storesync/internal/lib/password"
	"github.com/e-sellers/storesync/internal/lib/sl"
	"github.com/e-sellers/storesync/internal/models"
)

// Ошибки уровня бизнес-логики, различаемые обработчиками через errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrNotClient          = errors.New("operation is allowed for clients only")
)

// Тариф, назначаемый новым клиентам, и срок его продления.
const (
	defaultPlanName    = "Pro Plan"
	renewalPeriodDays  = 30
	revokedTokenPrefix = "revoked:"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	AdminExists(ctx context.Context) (bool, error)
	ListClients(ctx context.Context) ([]*models.User, error)
	UpdateUserConfig(ctx context.Context, username string, cfg models.StoreConfig, connectionStatus string) error
	CancelSubscription(ctx context.Context, username string) error
}

// TokenStore хранит отозванные при выходе токены до их истечения.
type TokenStore interface {
	Set(key string, value any, expiration time.Duration) error
	Exists(key string) (bool, error)
}

// Service отвечает за учетные записи и сессии пользователей.
type Service struct {
	users    UserRepository
	tokens   TokenStore
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(users UserRepository, tokens TokenStore, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// BootstrapAccount учетные данные записи, создаваемой при старте.
type BootstrapAccount struct {
	Username string
	Password string
}

// Bootstrap гарантирует наличие ровно одного администратора и демо-клиента.
// Идемпотентна: повторный запуск не создает дублей.
func (s *Service) Bootstrap(ctx context.Context, admin, demo BootstrapAccount) error {
	const op = "account.Bootstrap"

	adminExists, err := s.users.AdminExists(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !adminExists {
		hash, err := password.GetHash(admin.Password)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if _, err := s.users.CreateUser(ctx, models.User{
			Username:         admin.Username,
			PasswordHash:     hash,
			Role:             models.RoleAdmin,
			ConnectionStatus: models.ConnectionUntested,
		}); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("bootstrap created admin account", slog.String("username", admin.Username))
	}

	demoExists, err := s.users.UsernameExists(ctx, demo.Username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !demoExists {
		hash, err := password.GetHash(demo.Password)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		renewal := renewalDate()
		if _, err := s.users.CreateUser(ctx, models.User{
			Username:           demo.Username,
			PasswordHash:       hash,
			Role:               models.RoleClient,
			ConnectionStatus:   models.ConnectionUntested,
			SubscriptionStatus: models.SubscriptionActive,
			PlanName:           defaultPlanName,
			RenewalDate:        &renewal,
		}); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("bootstrap created demo client", slog.String("username", demo.Username))
	}

	return nil
}

// Login проверяет пароль пользователя по точному совпадению имени
// и возвращает JWT вместе с учетной записью. Число попыток не ограничено.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (string, *models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		// Неизвестное имя и неверный пароль неразличимы для клиента.
		return "", nil, ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(user.Username, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout отзывает токен до его истечения. Данные пользователей не меняются.
func (s *Service) Logout(_ context.Context, tokenStr string) error {
	const op = "account.Logout"
	claims, err := s.jwtMaker.ParseToken(tokenStr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.tokens.Set(revokedTokenPrefix+tokenStr, true, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsTokenRevoked сообщает, был ли токен отозван выходом из системы.
func (s *Service) IsTokenRevoked(_ context.Context, tokenStr string) (bool, error) {
	return s.tokens.Exists(revokedTokenPrefix + tokenStr)
}

// AddClient создает клиента с пустым конфигом, статусом UNTESTED, активной
// подпиской и датой продления через 30 дней. Имя проверяется на занятость
// без учета регистра.
func (s *Service) AddClient(ctx context.Context, username, rawPassword string) (*models.User, error) {
	const op = "account.AddClient"

	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	renewal := renewalDate()
	client := models.User{
		Username:           username,
		PasswordHash:       hash,
		Role:               models.RoleClient,
		ConnectionStatus:   models.ConnectionUntested,
		SubscriptionStatus: models.SubscriptionActive,
		PlanName:           defaultPlanName,
		RenewalDate:        &renewal,
	}
	uid, err := s.users.CreateUser(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	client.UID = uid
	client.PasswordHash = ""

	s.log.Info("created new client", slog.String("username", username))
	return &client, nil
}

// UpdateConfig заменяет конфиг магазина и статус подключения пользователя.
// Повторное применение того же конфига не меняет состояние.
func (s *Service) UpdateConfig(ctx context.Context, username string, cfg models.StoreConfig, connectionStatus string) error {
	if err := s.users.UpdateUserConfig(ctx, username, cfg, connectionStatus); err != nil {
		s.log.Error("failed to update user config", slog.String("username", username), sl.Err(err))
		return err
	}
	return nil
}

// CancelSubscription переводит подписку клиента в CANCELED.
// Дата продления сохраняется: доступ действует до нее.
func (s *Service) CancelSubscription(ctx context.Context, username string) error {
	const op = "account.CancelSubscription"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsClient() {
		return ErrNotClient
	}
	if err := s.users.CancelSubscription(ctx, username); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription canceled", slog.String("username", username))
	return nil
}

// GetUser возвращает учетную запись по имени пользователя.
func (s *Service) GetUser(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetUserByUsername(ctx, username)
}

// ListClients возвращает всех клиентов в порядке создания.
func (s *Service) ListClients(ctx context.Context) ([]*models.User, error) {
	return s.users.ListClients(ctx)
}

func renewalDate() time.Time {
	return time.Now().UTC().AddDate(0, 0, renewalPeriodDays)
}
