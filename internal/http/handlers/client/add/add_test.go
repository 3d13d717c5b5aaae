package add

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/e-sellers/storesync/internal/models"
	"github.com/e-sellers/storesync/internal/services/account"
)

type ClientCreatorMock struct {
	mock.Mock
}

func (m *ClientCreatorMock) AddClient(ctx context.Context, username, rawPassword string) (*models.User, error) {
	args := m.Called(ctx, username, rawPassword)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestAddClientHandler_ServeHTTP(t *testing.T) {
	clientsMock := new(ClientCreatorMock)
	logger := newNoopLogger()

	handler := New(logger, clientsMock)

	tests := []struct {
		name           string
		requestBody    interface{}
		mockUser       *models.User
		mockErr        error
		wantStatusCode int
		wantData       map[string]any
		wantError      string
		wantStatus     string
	}{
		{
			name:        "valid client",
			requestBody: Request{Username: "newshop", Password: "secret"},
			mockUser: &models.User{
				UID:                "uid-1",
				Username:           "newshop",
				Role:               models.RoleClient,
				SubscriptionStatus: models.SubscriptionActive,
				PlanName:           "Pro Plan",
			},
			wantStatusCode: http.StatusCreated,
			wantData: map[string]any{
				"uid":                 "uid-1",
				"username":            "newshop",
				"subscription_status": models.SubscriptionActive,
				"plan_name":           "Pro Plan",
			},
			wantStatus: "OK",
		},
		{
			name:           "duplicate username",
			requestBody:    Request{Username: "newshop", Password: "secret"},
			mockErr:        account.ErrDuplicateUsername,
			wantStatusCode: http.StatusConflict,
			wantError:      "username already exists",
			wantStatus:     "Error",
		},
		{
			name:           "username too short",
			requestBody:    Request{Username: "ab", Password: "secret"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Username is too short",
			wantStatus:     "Error",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientsMock.ExpectedCalls = nil
			clientsMock.Calls = nil

			if tt.mockUser != nil || tt.mockErr != nil {
				req := tt.requestBody.(Request)
				clientsMock.On("AddClient", mock.Anything, req.Username, req.Password).
					Return(tt.mockUser, tt.mockErr).Once()
			}

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/clients", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			} else {
				assert.Nil(t, got["error"])
			}

			if tt.wantData != nil {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				for k, v := range tt.wantData {
					assert.Equal(t, v, data[k])
				}
			}

			if tt.mockUser != nil || tt.mockErr != nil {
				clientsMock.AssertExpectations(t)
			}
		})
	}
}
