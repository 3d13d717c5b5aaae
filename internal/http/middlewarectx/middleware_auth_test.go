package middlewarectx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/e-sellers/storesync/internal/http/middlewarectx"
	"github.com/e-sellers/storesync/internal/lib/jwt"
	"github.com/e-sellers/storesync/internal/models"

	"io"
	"log/slog"
)

type TokenCheckerMock struct {
	mock.Mock
}

func (m *TokenCheckerMock) IsTokenRevoked(ctx context.Context, tokenStr string) (bool, error) {
	args := m.Called(ctx, tokenStr)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	validToken, err := maker.GenerateToken("testuser", models.RoleClient)
	assert.NoError(t, err)

	logger := newNoopLogger()
	tokensMock := new(TokenCheckerMock)

	handlerCalled := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		assert.Equal(t, "testuser", middlewarectx.Username(r.Context()))
		assert.Equal(t, models.RoleClient, middlewarectx.UserRole(r.Context()))
		assert.Equal(t, validToken, middlewarectx.TokenString(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	mw := middlewarectx.JWTMiddleware(maker, tokensMock, logger)(nextHandler)

	tests := []struct {
		name           string
		authHeader     string
		mockRevoked    bool
		mockErr        error
		checkRevoked   bool
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "malformed token",
			authHeader:     "Bearer not-a-jwt",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "revocation check error",
			authHeader:     "Bearer " + validToken,
			checkRevoked:   true,
			mockErr:        errors.New("redis is down"),
			wantStatusCode: http.StatusInternalServerError,
			wantCalled:     false,
		},
		{
			name:           "revoked token",
			authHeader:     "Bearer " + validToken,
			checkRevoked:   true,
			mockRevoked:    true,
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer " + validToken,
			checkRevoked:   true,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false
			tokensMock.ExpectedCalls = nil
			tokensMock.Calls = nil
			if tt.checkRevoked {
				tokensMock.On("IsTokenRevoked", mock.Anything, validToken).
					Return(tt.mockRevoked, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			tokensMock.AssertExpectations(t)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	logger := newNoopLogger()

	handlerCalled := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	mw := middlewarectx.RequireAdmin(logger)(nextHandler)

	tests := []struct {
		name           string
		role           string
		wantStatusCode int
		wantCalled     bool
	}{
		{name: "admin allowed", role: models.RoleAdmin, wantStatusCode: http.StatusOK, wantCalled: true},
		{name: "client rejected", role: models.RoleClient, wantStatusCode: http.StatusForbidden, wantCalled: false},
		{name: "missing role rejected", role: "", wantStatusCode: http.StatusForbidden, wantCalled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false

			req := httptest.NewRequest(http.MethodGet, "/clients", nil)
			if tt.role != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.Role, tt.role))
			}

			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
		})
	}
}
