package test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/e-sellers/storesync/internal/http/middlewarectx"
	"github.com/e-sellers/storesync/internal/models"
	"github.com/e-sellers/storesync/internal/services/sync"
	"github.com/e-sellers/storesync/internal/shopify"
)

type AccountProviderMock struct {
	mock.Mock
}

func (m *AccountProviderMock) GetUser(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *AccountProviderMock) UpdateConfig(ctx context.Context, username string, cfg models.StoreConfig, connectionStatus string) error {
	args := m.Called(ctx, username, cfg, connectionStatus)
	return args.Error(0)
}

type ConnectionTesterMock struct {
	mock.Mock
}

func (m *ConnectionTesterMock) TestConnection(ctx context.Context, user *models.User) (shopify.TestResult, error) {
	args := m.Called(ctx, user)
	result, _ := args.Get(0).(shopify.TestResult)
	return result, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestConnectionTestHandler_ServeHTTP(t *testing.T) {
	user := &models.User{
		UID:      "uid-1",
		Username: "shop",
		Role:     models.RoleClient,
		Config: models.StoreConfig{
			StoreDomain: "demo-store.myshopify.com",
			AccessToken: "shpat_token",
		},
	}

	tests := []struct {
		name           string
		testResult     shopify.TestResult
		testErr        error
		wantStatusCode int
		wantStatuses   []string
	}{
		{
			name:           "successful test",
			testResult:     shopify.TestResult{Success: true, ShopName: "Demo", ProductsCount: 3},
			wantStatusCode: http.StatusOK,
			wantStatuses:   []string{models.ConnectionTesting, models.ConnectionConnected},
		},
		{
			name:           "failed test",
			testResult:     shopify.TestResult{Success: false, Error: "invalid token"},
			wantStatusCode: http.StatusOK,
			wantStatuses:   []string{models.ConnectionTesting, models.ConnectionFailed},
		},
		{
			name:           "config missing",
			testErr:        sync.ErrConfigMissing,
			wantStatusCode: http.StatusBadRequest,
			wantStatuses:   []string{models.ConnectionTesting, models.ConnectionUntested},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accountsMock := new(AccountProviderMock)
			testerMock := new(ConnectionTesterMock)

			accountsMock.On("GetUser", mock.Anything, "shop").Return(user, nil)

			// Статусы фиксируем в порядке записи: сперва TESTING, затем итог.
			var gotStatuses []string
			accountsMock.On("UpdateConfig", mock.Anything, "shop", user.Config, mock.AnythingOfType("string")).
				Run(func(args mock.Arguments) {
					gotStatuses = append(gotStatuses, args.String(3))
				}).
				Return(nil)

			testerMock.On("TestConnection", mock.Anything, user).Return(tt.testResult, tt.testErr)

			handler := New(newNoopLogger(), accountsMock, testerMock)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/settings/test", nil)
			ctx := context.WithValue(req.Context(), middlewarectx.User, "shop")
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantStatuses, gotStatuses)
			accountsMock.AssertExpectations(t)
		})
	}
}
