package auth

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GlebRadaev/loyalty/internal/service/authservice"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*AuthHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

func TestLoginHandler(t *testing.T) {
	expiresAt := time.Date(2024, 10, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		body          string
		prepareMock   func(service *MockService)
		expectedCode  int
		expectedBody  string
		expectedToken string
	}{
		{
			name: "Successful login",
			body: `{"utorid":"smithj12","password":"Secret1!"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Login(context.Background(), "smithj12", "Secret1!").Return("some-jwt-token", expiresAt, nil)
			},
			expectedCode:  http.StatusOK,
			expectedBody:  `{"token":"some-jwt-token","expiresAt":"2024-10-02T12:00:00Z"}`,
			expectedToken: "Bearer some-jwt-token",
		},
		{
			name: "Invalid credentials",
			body: `{"utorid":"smithj12","password":"wrong"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Login(context.Background(), "smithj12", "wrong").Return("", time.Time{}, authservice.ErrInvalidCredentials)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"error":"Invalid credentials"}`,
		},
		{
			name: "Store failure",
			body: `{"utorid":"smithj12","password":"Secret1!"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Login(context.Background(), "smithj12", "Secret1!").Return("", time.Time{}, errors.New("db down"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"Internal server error"}`,
		},
		{
			name:         "Missing password",
			body:         `{"utorid":"smithj12"}`,
			prepareMock:  func(*MockService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid request body"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			req := httptest.NewRequest(http.MethodPost, "/auth/tokens", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.Login(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, tt.expectedToken, w.Header().Get("Authorization"))
		})
	}
}

func TestRequestResetHandler(t *testing.T) {
	expiresAt := time.Date(2024, 10, 1, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Token issued",
			body: `{"utorid":"smithj12"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().RequestReset(context.Background(), "smithj12", "192.0.2.1").Return("reset-token", expiresAt, nil)
			},
			expectedCode: http.StatusAccepted,
		},
		{
			name: "Rate limited",
			body: `{"utorid":"smithj12"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().RequestReset(context.Background(), "smithj12", "192.0.2.1").Return("", time.Time{}, authservice.ErrTooManyRequests)
			},
			expectedCode: http.StatusTooManyRequests,
		},
		{
			name: "Unknown user",
			body: `{"utorid":"nobody"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().RequestReset(context.Background(), "nobody", "192.0.2.1").Return("", time.Time{}, authservice.ErrUserNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Invalid request body",
			body:         `{`,
			prepareMock:  func(*MockService) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			// httptest requests come from 192.0.2.1:1234.
			req := httptest.NewRequest(http.MethodPost, "/auth/resets", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.RequestReset(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestResetHandler(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		err          error
		expectCall   bool
		expectedCode int
	}{
		{name: "Password set", body: `{"utorid":"smithj12","password":"Secret1!"}`, expectCall: true, expectedCode: http.StatusOK},
		{name: "Unknown token", body: `{"utorid":"smithj12","password":"Secret1!"}`, err: authservice.ErrTokenNotFound, expectCall: true, expectedCode: http.StatusNotFound},
		{name: "Other user's token", body: `{"utorid":"other001","password":"Secret1!"}`, err: authservice.ErrTokenOwner, expectCall: true, expectedCode: http.StatusForbidden},
		{name: "Expired token", body: `{"utorid":"smithj12","password":"Secret1!"}`, err: authservice.ErrTokenExpired, expectCall: true, expectedCode: http.StatusGone},
		{name: "Weak password", body: `{"utorid":"smithj12","password":"short"}`, err: authservice.ErrWeakPassword, expectCall: true, expectedCode: http.StatusBadRequest},
		{name: "Missing utorid", body: `{"password":"Secret1!"}`, expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			if tt.expectCall {
				service.EXPECT().Reset(gomock.Any(), "reset-token", gomock.Any(), gomock.Any()).Return(tt.err)
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/resets/reset-token", bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("resetToken", "reset-token")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			handler.Reset(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
