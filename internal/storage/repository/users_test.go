package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/e-sellers/storesync/internal/models"
)

func TestStorage_CreateAndGetUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	renewal := time.Now().UTC().AddDate(0, 0, 30).Truncate(time.Second)

	uid, err := storage.CreateUser(ctx, models.User{
		Username:     "shop-one",
		PasswordHash: "hash",
		Role:         models.RoleClient,
		Config: models.StoreConfig{
			StoreDomain: "shop-one.myshopify.com",
			AccessToken: "shpat_abc",
			LocationID:  "1001",
		},
		ConnectionStatus:   models.ConnectionUntested,
		SubscriptionStatus: models.SubscriptionActive,
		PlanName:           "Pro Plan",
		RenewalDate:        &renewal,
	})
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	got, err := storage.GetUserByUsername(ctx, "shop-one")
	require.NoError(t, err)
	require.Equal(t, uid, got.UID)
	require.Equal(t, "shop-one", got.Username)
	require.Equal(t, models.RoleClient, got.Role)
	require.Equal(t, "shop-one.myshopify.com", got.Config.StoreDomain)
	require.Equal(t, "shpat_abc", got.Config.AccessToken)
	require.Equal(t, models.SubscriptionActive, got.SubscriptionStatus)
	require.Equal(t, "Pro Plan", got.PlanName)
	require.NotNil(t, got.RenewalDate)
	require.WithinDuration(t, renewal, *got.RenewalDate, time.Second)
}

func TestStorage_GetUserByUsername_ExactMatch(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "User", "hash", models.RoleClient, models.StoreConfig{})

	ctx := context.Background()

	// Вход выполняется по точному совпадению имени
	_, err := storage.GetUserByUsername(ctx, "user")
	require.ErrorIs(t, err, ErrUserNotFound)

	got, err := storage.GetUserByUsername(ctx, "User")
	require.NoError(t, err)
	require.Equal(t, "User", got.Username)
}

func TestStorage_UsernameExists_CaseInsensitive(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "ShopTwo", "hash", models.RoleClient, models.StoreConfig{})

	ctx := context.Background()

	exists, err := storage.UsernameExists(ctx, "shoptwo")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = storage.UsernameExists(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestStorage_AdminExists(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	exists, err := storage.AdminExists(ctx)
	require.NoError(t, err)
	require.False(t, exists)

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "E-sellers", "hash", models.RoleAdmin, models.StoreConfig{})

	exists, err = storage.AdminExists(ctx)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestStorage_ListClients_OrderAndFiltering(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "E-sellers", "hash", models.RoleAdmin, models.StoreConfig{})
	factory.CreateClient(t, "first", "hash", time.Now().AddDate(0, 0, 30))
	factory.CreateClient(t, "second", "hash", time.Now().AddDate(0, 0, 30))

	clients, err := storage.ListClients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 2)
	require.Equal(t, "first", clients[0].Username)
	require.Equal(t, "second", clients[1].Username)
}

func TestStorage_UpdateUserConfig(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "shop", "hash", models.RoleClient, models.StoreConfig{})

	ctx := context.Background()
	cfg := models.StoreConfig{
		StoreDomain: "shop.myshopify.com",
		AccessToken: "shpat_new",
		LocationID:  "2002",
	}

	err := storage.UpdateUserConfig(ctx, "shop", cfg, models.ConnectionConnected)
	require.NoError(t, err)

	got, err := storage.GetUserByUsername(ctx, "shop")
	require.NoError(t, err)
	require.Equal(t, cfg, got.Config)
	require.Equal(t, models.ConnectionConnected, got.ConnectionStatus)

	err = storage.UpdateUserConfig(ctx, "missing", cfg, models.ConnectionUntested)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStorage_CancelSubscription(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	renewal := time.Now().UTC().AddDate(0, 0, 30)
	factory := NewTestDataFactory(storage)
	factory.CreateClient(t, "shop", "hash", renewal)

	ctx := context.Background()

	err := storage.CancelSubscription(ctx, "shop")
	require.NoError(t, err)

	got, err := storage.GetUserByUsername(ctx, "shop")
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionCanceled, got.SubscriptionStatus)
	// Дата продления не должна меняться при отмене
	require.NotNil(t, got.RenewalDate)
	require.WithinDuration(t, renewal, *got.RenewalDate, time.Second)

	err = storage.CancelSubscription(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}
